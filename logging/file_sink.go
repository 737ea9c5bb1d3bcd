package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// fileSink is an io.WriteCloser that appends to a log file and reopens it
// when the file was removed or rotated away between writes.
type fileSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	opened os.FileInfo
}

var _ io.WriteCloser = (*fileSink)(nil)

func newFileSink(path string) *fileSink {
	return &fileSink{path: path}
}

// Write implements the io.Writer interface.
func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.current()
	if err != nil {
		fmt.Fprintf(os.Stderr, "xsh-log: %v\n", err)
		return 0, err
	}
	return f.Write(p)
}

// Close implements the io.Closer interface.
func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.opened = nil
	return err
}

func (s *fileSink) current() (*os.File, error) {
	if s.file != nil {
		info, err := os.Stat(s.path)
		if err == nil && os.SameFile(info, s.opened) {
			return s.file, nil
		}
		s.file.Close()
		s.file = nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	s.file = f
	s.opened = info
	return f, nil
}
