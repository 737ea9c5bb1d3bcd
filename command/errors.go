package command

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	xsherrors "github.com/grovetools/xsh/errors"
)

// ExitStatus describes how a process ended.
type ExitStatus struct {
	// Code is the exit code, or -1 when the process was killed.
	Code int
	// Signal names the signal that terminated the process, if any.
	Signal string
	// TimedOut is set when the process was killed by the timeout.
	TimedOut bool
}

// Success reports whether the process exited normally with code zero.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == "" && !s.TimedOut
}

func (s ExitStatus) String() string {
	switch {
	case s.TimedOut:
		return "timed out"
	case s.Signal != "":
		return "signal: " + s.Signal
	default:
		return fmt.Sprintf("exit code: %d", s.Code)
	}
}

// Outcome is the result of a finished process.
type Outcome struct {
	Status ExitStatus
	// Stdout and Stderr hold the most recent captured bytes of each stream.
	// With CaptureCombined both streams are in Stdout.
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Error is returned when a command cannot be started, fails, times out or
// produces unusable output. Code says which; the remaining fields carry the
// data used to build the message.
type Error struct {
	Code xsherrors.ErrorCode
	// Command is the display form of the command line, <secret> for secret
	// commands.
	Command string
	Program string
	Dir     string
	Status  ExitStatus
	Timeout time.Duration
	// Stdout and Stderr are the captured tails, when output was captured,
	// each cut to the output limit.
	Stdout []byte
	Stderr []byte
	Err    error
}

// ErrorCode implements errors.Coder.
func (e *Error) ErrorCode() xsherrors.ErrorCode {
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errno returns the OS error number behind a spawn or I/O failure.
func (e *Error) Errno() (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno, true
	}
	return 0, false
}

// ExitCode returns the exit code of a failed command, -1 if it did not exit
// normally.
func (e *Error) ExitCode() int {
	return e.Status.Code
}

func (e *Error) Error() string {
	var b strings.Builder
	cmd := e.Command

	switch e.Code {
	case xsherrors.ErrCodeCommandFailed:
		if e.Status.Signal != "" {
			fmt.Fprintf(&b, "command was terminated by a signal `%s`: %s", cmd, e.Status.Signal)
		} else {
			fmt.Fprintf(&b, "command exited with non-zero code `%s`: %d", cmd, e.Status.Code)
		}
	case xsherrors.ErrCodeCommandTimeout:
		fmt.Fprintf(&b, "command timed out after %s `%s`", e.Timeout, cmd)
	case xsherrors.ErrCodeCommandCanceled:
		fmt.Fprintf(&b, "command was canceled `%s`: %v", cmd, e.Err)
	case xsherrors.ErrCodeCommandNotFound:
		fmt.Fprintf(&b, "command not found: `%s`", e.Program)
	case xsherrors.ErrCodeWorkingDir:
		fmt.Fprintf(&b, "failed to run `%s`: working directory `%s` is unusable: %v", cmd, e.Dir, e.Err)
	case xsherrors.ErrCodePermissionDenied:
		fmt.Fprintf(&b, "permission denied when running command `%s`: %v", cmd, e.Err)
	case xsherrors.ErrCodeInvalidUTF8:
		fmt.Fprintf(&b, "command produced invalid utf-8 `%s`", cmd)
		return b.String()
	default:
		fmt.Fprintf(&b, "io error when running command `%s`: %v", cmd, e.Err)
	}

	writeSuffix(&b, "stdout", e.Stdout)
	writeSuffix(&b, "stderr", e.Stderr)
	return b.String()
}

func writeSuffix(b *strings.Builder, label string, data []byte) {
	if len(data) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(label)
	b.WriteString(" suffix:\n")
	b.WriteString(strings.TrimRight(strings.ToValidUTF8(string(data), "\uFFFD"), "\n"))
}
