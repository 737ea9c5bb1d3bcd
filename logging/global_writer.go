package logging

import (
	"io"
	"os"
	"sync"
)

// globalWriter is an io.Writer that delegates to an underlying writer,
// which can be swapped at runtime in a thread-safe manner.
type globalWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

// Write implements the io.Writer interface.
func (gw *globalWriter) Write(p []byte) (n int, err error) {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	return gw.w.Write(p)
}

// Set changes the underlying writer.
func (gw *globalWriter) Set(w io.Writer) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.w = w
}

// Ensure the global writer is a singleton.
var defaultGlobalWriter = &globalWriter{w: os.Stderr}

// SetGlobalOutput redirects structured logs and command echo lines. Loggers
// already created keep writing through the swapped writer.
func SetGlobalOutput(w io.Writer) {
	defaultGlobalWriter.Set(w)
}

// GetGlobalOutput returns the process-wide log writer, os.Stderr unless
// SetGlobalOutput changed it.
func GetGlobalOutput() io.Writer {
	return defaultGlobalWriter
}
