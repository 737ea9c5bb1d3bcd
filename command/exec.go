package command

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	xsherrors "github.com/grovetools/xsh/errors"
	"github.com/grovetools/xsh/logging"
)

// waitDelay bounds how long Wait keeps draining pipes after the process was
// killed, for grandchildren that still hold them open.
const waitDelay = time.Second

type entryPoint int

const (
	entryRun entryPoint = iota
	entryRead
	entryReadStderr
	entryOutput
)

// streams is the resolved wiring for one execution.
type streams struct {
	stdout, stderr io.Writer
	outBuf, errBuf *tailBuffer
}

// Run executes the command, echoing it first unless Quiet. It fails when the
// command cannot be started, times out, or exits with a non-zero status
// (unless IgnoreStatus). Output is inherited by default.
func (c Command) Run() error {
	return c.RunContext(context.Background())
}

// RunContext is Run with a parent context. Cancelling ctx kills the command.
func (c Command) RunContext(ctx context.Context) error {
	_, err := c.execute(ctx, entryRun)
	return err
}

// Read executes the command and returns its stdout as text with a single
// trailing newline trimmed. Stderr is inherited unless the output mode says
// otherwise.
func (c Command) Read() (string, error) {
	return c.ReadContext(context.Background())
}

// ReadContext is Read with a parent context.
func (c Command) ReadContext(ctx context.Context) (string, error) {
	out, err := c.execute(ctx, entryRead)
	if err != nil {
		return "", err
	}
	return c.decode(out.Stdout)
}

// ReadStderr is like Read but returns stderr. With CaptureCombined it
// returns both streams interleaved, as Read does.
func (c Command) ReadStderr() (string, error) {
	return c.ReadStderrContext(context.Background())
}

// ReadStderrContext is ReadStderr with a parent context.
func (c Command) ReadStderrContext(ctx context.Context) (string, error) {
	out, err := c.execute(ctx, entryReadStderr)
	if err != nil {
		return "", err
	}
	if c.output == CaptureCombined {
		// both streams share the stdout buffer
		return c.decode(out.Stdout)
	}
	return c.decode(out.Stderr)
}

// Output executes the command and returns its outcome whatever the exit
// status. Both streams are captured by default. Spawn failures, timeouts,
// cancellation and I/O errors are still returned as errors; for timeouts the
// partial Outcome is returned alongside the error.
func (c Command) Output() (Outcome, error) {
	return c.OutputContext(context.Background())
}

// OutputContext is Output with a parent context.
func (c Command) OutputContext(ctx context.Context) (Outcome, error) {
	return c.execute(ctx, entryOutput)
}

// ToExecContext is ToExec for a command bound to ctx.
func (c Command) ToExecContext(ctx context.Context) *exec.Cmd {
	cmd := c.executorOrDefault().CommandContext(ctx, c.prog, c.args...) //nolint:gosec // argv comes from a parsed template
	c.prepare(cmd)
	return cmd
}

func (c Command) logger() *logrus.Entry {
	if c.log != nil {
		return c.log
	}
	return logging.NewLogger("xsh.command")
}

// resolveStreams applies the output mode, the entry point's needs and the
// ignore flags, in that order.
func (c Command) resolveStreams(entry entryPoint) streams {
	mode := c.output
	if mode == OutputDefault {
		if entry == entryOutput {
			mode = CaptureBoth
		} else {
			mode = Inherit
		}
	}

	limit := DefaultOutputLimit
	if c.limitSet {
		limit = c.limit
	}
	// The stream handed back by Read or ReadStderr is kept whole unless the
	// caller asked for a limit.
	readLimit := 0
	if c.limitSet {
		readLimit = c.limit
	}

	var s streams
	switch mode {
	case CaptureBoth:
		s.outBuf = newTailBuffer(limit)
		s.errBuf = newTailBuffer(limit)
	case CaptureCombined:
		l := limit
		if entry == entryRead || entry == entryReadStderr {
			l = readLimit
		}
		s.outBuf = newTailBuffer(l)
		s.errBuf = s.outBuf
	case Inherit:
		s.stdout, s.stderr = os.Stdout, os.Stderr
	case Ignore:
	}

	if mode != CaptureCombined {
		switch entry {
		case entryRead:
			s.outBuf = newTailBuffer(readLimit)
		case entryReadStderr:
			s.errBuf = newTailBuffer(readLimit)
		}
	}

	if s.outBuf != nil {
		s.stdout = s.outBuf
	}
	if s.errBuf != nil {
		s.stderr = s.errBuf
	}
	if c.ignoreStdout {
		s.stdout = nil
		if s.errBuf != s.outBuf {
			s.outBuf = nil
		}
	}
	if c.ignoreStderr {
		s.stderr = nil
		if s.errBuf != s.outBuf {
			s.errBuf = nil
		}
	}
	return s
}

func (c Command) execute(parent context.Context, entry entryPoint) (Outcome, error) {
	if parent == nil {
		parent = context.Background()
	}
	log := c.logger()

	if entry == entryRun && !c.quiet {
		echo := c.echo
		if echo == nil {
			echo = logging.GetWriter(parent)
		}
		logging.Echo(echo, c.String())
	}

	ctx := parent
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, c.timeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	bound := ctx.Done() != nil
	if bound {
		cmd = c.ToExecContext(ctx)
		cmd.WaitDelay = waitDelay
	} else {
		cmd = c.ToExec()
	}
	configureProcess(cmd, bound && c.stdinKind != stdinInherit)

	s := c.resolveStreams(entry)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	log.WithFields(logrus.Fields{
		"program": c.displayProgram(),
		"dir":     c.dir,
		"timeout": c.timeout,
	}).Debug("Starting command")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		cerr := c.spawnError(err)
		log.WithError(err).WithField("code", cerr.Code).Debug("Failed to start command")
		return Outcome{}, cerr
	}

	waitErr := cmd.Wait()
	out := Outcome{
		Stdout:   s.outBuf.Bytes(),
		Duration: time.Since(start),
	}
	if s.errBuf != s.outBuf {
		out.Stderr = s.errBuf.Bytes()
	}
	if state := cmd.ProcessState; state != nil {
		out.Status.Code = state.ExitCode()
		out.Status.Signal = signalOf(state)
	}

	fields := logrus.Fields{
		"program":      c.displayProgram(),
		"status":       out.Status.String(),
		"duration":     out.Duration,
		"stdout_bytes": s.outBuf.Total(),
		"stderr_bytes": s.errBuf.Total(),
	}

	if ctx.Err() != nil && (waitErr != nil || !out.Status.Success()) {
		if parent.Err() != nil {
			log.WithFields(fields).Debug("Command canceled")
			return out, c.newError(xsherrors.ErrCodeCommandCanceled, out, parent.Err())
		}
		out.Status.TimedOut = true
		log.WithFields(fields).Debug("Command timed out and was killed")
		return out, c.newError(xsherrors.ErrCodeCommandTimeout, out, ctx.Err())
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
		case errors.Is(waitErr, exec.ErrWaitDelay):
			log.WithFields(fields).Debug("Output pipes were still open after the command exited")
		default:
			log.WithFields(fields).WithError(waitErr).Debug("Command I/O failed")
			return out, c.newError(xsherrors.ErrCodeCommandIO, out, waitErr)
		}
	}

	log.WithFields(fields).Debug("Command finished")

	if entry != entryOutput && !c.ignoreStatus && !out.Status.Success() {
		return out, c.newError(xsherrors.ErrCodeCommandFailed, out, waitErr)
	}
	return out, nil
}

// decode turns captured bytes into text: invalid UTF-8 is an error, CRLF is
// normalized on Windows, and one trailing line terminator is removed.
func (c Command) decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &Error{
			Code:    xsherrors.ErrCodeInvalidUTF8,
			Command: c.String(),
			Program: c.displayProgram(),
			Dir:     c.dir,
		}
	}
	text := string(data)
	if runtime.GOOS == "windows" {
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	return text, nil
}

func (c Command) displayProgram() string {
	if c.secret {
		return "<secret>"
	}
	return c.prog
}

func (c Command) newError(code xsherrors.ErrorCode, out Outcome, cause error) *Error {
	limit := DefaultOutputLimit
	if c.limitSet && c.limit > 0 {
		limit = c.limit
	}
	return &Error{
		Code:    code,
		Command: c.String(),
		Program: c.displayProgram(),
		Dir:     c.dir,
		Status:  out.Status,
		Timeout: c.timeout,
		Stdout:  lastBytes(out.Stdout, limit),
		Stderr:  lastBytes(out.Stderr, limit),
		Err:     cause,
	}
}

// lastBytes returns a copy of the final n bytes of data.
func lastBytes(data []byte, n int) []byte {
	if len(data) > n {
		data = data[len(data)-n:]
	}
	if data == nil {
		return nil
	}
	return append([]byte(nil), data...)
}

// spawnError classifies a failure to start the process.
func (c Command) spawnError(err error) *Error {
	code := xsherrors.ErrCodeCommandSpawn
	switch {
	case c.dir != "" && !dirExists(c.dir):
		code = xsherrors.ErrCodeWorkingDir
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		code = xsherrors.ErrCodeCommandNotFound
	case errors.Is(err, fs.ErrPermission):
		code = xsherrors.ErrCodePermissionDenied
	}
	return c.newError(code, Outcome{}, err)
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
