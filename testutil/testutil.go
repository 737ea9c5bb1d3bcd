package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireUnix skips the test on Windows, where the POSIX tools the test
// drives are not available.
func RequireUnix(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX environment")
	}
}

// RequireCommand skips the test if any of the programs is not on PATH.
func RequireCommand(t *testing.T, names ...string) {
	t.Helper()

	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available", name)
		}
	}
}

// WriteScript writes an executable /bin/sh script into dir and returns its
// path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	RequireUnix(t)

	path := filepath.Join(dir, name)
	content := "#!/bin/sh\n" + body
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755), "failed to write script %s", name)
	return path
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "failed to write %s", name)
	return path
}

// RandomString generates a random string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}

// ReadPID reads a process id a test script wrote to path.
func ReadPID(t *testing.T, path string) int {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read pid file")
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err, "malformed pid file")
	return pid
}
