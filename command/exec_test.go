//go:build !windows

package command

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xsherrors "github.com/grovetools/xsh/errors"
	"github.com/grovetools/xsh/logging"
	"github.com/grovetools/xsh/testutil"
)

func shellFor(t *testing.T) Shell {
	t.Helper()
	sh, err := NewShell()
	require.NoError(t, err)
	return sh
}

func requireCode(t *testing.T, err error, code xsherrors.ErrorCode) *Error {
	t.Helper()
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, code, cerr.Code, "unexpected error: %v", err)
	return cerr
}

func TestRunSuccess(t *testing.T) {
	testutil.RequireCommand(t, "true")

	var echo bytes.Buffer
	err := shellFor(t).MustCmd("true").WithEchoWriter(&echo).Run()
	require.NoError(t, err)
	assert.Equal(t, "$ true\n", echo.String())
}

func TestRunEcho(t *testing.T) {
	testutil.RequireCommand(t, "echo")
	sh := shellFor(t)
	c := sh.MustCmd("echo {msg}", "two words").IgnoreStdout()

	t.Run("quoted", func(t *testing.T) {
		var echo bytes.Buffer
		require.NoError(t, c.WithEchoWriter(&echo).Run())
		assert.Equal(t, "$ echo \"two words\"\n", echo.String())
	})

	t.Run("secret", func(t *testing.T) {
		var echo bytes.Buffer
		require.NoError(t, c.Secret().WithEchoWriter(&echo).Run())
		assert.Equal(t, "$ <secret>\n", echo.String())
	})

	t.Run("quiet", func(t *testing.T) {
		var echo bytes.Buffer
		require.NoError(t, c.Quiet().WithEchoWriter(&echo).Run())
		assert.Empty(t, echo.String())
	})

	t.Run("context writer", func(t *testing.T) {
		var echo bytes.Buffer
		ctx := logging.WithWriter(t.Context(), &echo)
		require.NoError(t, c.RunContext(ctx))
		assert.Equal(t, "$ echo \"two words\"\n", echo.String())
	})

	t.Run("read does not echo", func(t *testing.T) {
		var echo bytes.Buffer
		out, err := sh.MustCmd("echo hi").WithEchoWriter(&echo).Read()
		require.NoError(t, err)
		assert.Equal(t, "hi", out)
		assert.Empty(t, echo.String())
	})
}

func TestNonZeroExit(t *testing.T) {
	testutil.RequireCommand(t, "sh")
	c := shellFor(t).MustCmd("sh -c {script}", "echo partial; echo broken >&2; exit 3").Quiet()

	out, err := c.Output()
	require.NoError(t, err)
	assert.Equal(t, 3, out.Status.Code)
	assert.False(t, out.Status.Success())
	assert.Equal(t, "partial\n", string(out.Stdout))
	assert.Equal(t, "broken\n", string(out.Stderr))

	cerr := requireCode(t, c.WithOutput(CaptureBoth).Run(), xsherrors.ErrCodeCommandFailed)
	assert.Equal(t, 3, cerr.ExitCode())
	assert.Contains(t, cerr.Error(), "command exited with non-zero code")
	assert.Contains(t, cerr.Error(), "stderr suffix:\nbroken")

	_, err = c.IgnoreStderr().Read()
	requireCode(t, err, xsherrors.ErrCodeCommandFailed)

	assert.NoError(t, c.IgnoreStatus().WithOutput(Ignore).Run())
	text, err := c.IgnoreStatus().IgnoreStderr().Read()
	require.NoError(t, err)
	assert.Equal(t, "partial", text)
}

func TestTerminatedBySignal(t *testing.T) {
	testutil.RequireCommand(t, "sh")
	err := shellFor(t).MustCmd("sh -c {script}", "kill -TERM $$").Quiet().Run()
	cerr := requireCode(t, err, xsherrors.ErrCodeCommandFailed)
	assert.Equal(t, "terminated", cerr.Status.Signal)
	assert.Contains(t, cerr.Error(), "terminated by a signal")
}

func TestReadTrimsOneNewline(t *testing.T) {
	testutil.RequireCommand(t, "printf")
	sh := shellFor(t)

	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"single newline", `hello\n`, "hello"},
		{"keeps second newline", `hello\n\n`, "hello\n"},
		{"crlf", `hello\r\n`, "hello"},
		{"no newline", `hello`, "hello"},
		{"empty", ``, ""},
		{"inner whitespace", `  a b  \n`, "  a b  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := sh.MustCmd("printf {format}", tt.format).Read()
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestReadInvalidUTF8(t *testing.T) {
	testutil.RequireCommand(t, "printf")
	_, err := shellFor(t).MustCmd(`printf '\377\n'`).Read()
	cerr := requireCode(t, err, xsherrors.ErrCodeInvalidUTF8)
	assert.Equal(t, "command produced invalid utf-8 `printf \"\\\\377\\\\n\"`", cerr.Error())
}

func TestReadStderr(t *testing.T) {
	testutil.RequireCommand(t, "sh")
	out, err := shellFor(t).MustCmd("sh -c {script}", "echo ignored; echo diagnostics >&2").IgnoreStdout().ReadStderr()
	require.NoError(t, err)
	assert.Equal(t, "diagnostics", out)
}

func TestStdin(t *testing.T) {
	testutil.RequireCommand(t, "sort")
	out, err := shellFor(t).MustCmd("sort -r").WithStdinString("alpha\ngamma\nbeta\n").Read()
	require.NoError(t, err)
	assert.Equal(t, "gamma\nbeta\nalpha", out)

	// no stdin configured reads EOF immediately
	out, err = shellFor(t).MustCmd("sort").Read()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCombinedOutputKeepsOrder(t *testing.T) {
	testutil.RequireCommand(t, "sh")
	script := "echo one; echo two >&2; echo three; echo four >&2"
	out, err := shellFor(t).MustCmd("sh -c {script}", script).WithOutput(CaptureCombined).Output()
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\nfour\n", string(out.Stdout))
	assert.Empty(t, out.Stderr)

	text, err := shellFor(t).MustCmd("sh -c {script}", script).WithOutput(CaptureCombined).Read()
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\nfour", text)
}

func TestEnvAndDir(t *testing.T) {
	testutil.RequireCommand(t, "sh")
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	sh := shellFor(t).WithEnv("XSH_FROM_SHELL", "shell")
	c := sh.MustCmd("sh -c {script}", `echo "$XSH_FROM_SHELL:$XSH_FROM_CMD:${HOME-unset}"; pwd -P`).
		WithEnv("XSH_FROM_CMD", "cmd").
		WithoutEnv("HOME").
		WithDir(dir)

	out, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, "shell:cmd:unset\n"+dir, out)

	out, err = sh.MustCmd("/bin/sh -c {script}", `echo "${XSH_FROM_SHELL-empty}"`).WithClearEnv().Read()
	require.NoError(t, err)
	assert.Equal(t, "empty", out)
}

func TestRelativeDir(t *testing.T) {
	testutil.RequireCommand(t, "pwd")
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	testutil.WriteFile(t, root, "nested/keep", "")

	out, err := NewShellFrom(root, nil).WithEnv("PATH", "/usr/bin:/bin").MustCmd("pwd -P").WithDir("nested").Read()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "nested"), out)
}

func TestSpawnErrors(t *testing.T) {
	testutil.RequireCommand(t, "true")
	sh := shellFor(t)
	tmp := t.TempDir()

	t.Run("not found", func(t *testing.T) {
		err := sh.MustCmd("xsh-no-such-program-" + testutil.RandomString(6)).Quiet().Run()
		cerr := requireCode(t, err, xsherrors.ErrCodeCommandNotFound)
		assert.ErrorIs(t, err, exec.ErrNotFound)
		assert.True(t, strings.HasPrefix(cerr.Error(), "command not found: `xsh-no-such-program-"))
	})

	t.Run("missing working directory", func(t *testing.T) {
		err := sh.MustCmd("true").WithDir(filepath.Join(tmp, "missing")).Quiet().Run()
		requireCode(t, err, xsherrors.ErrCodeWorkingDir)
	})

	t.Run("not executable", func(t *testing.T) {
		path := testutil.WriteFile(t, tmp, "plain.sh", "echo hi\n")
		err := sh.MustCmd("{path}", path).Quiet().Run()
		requireCode(t, err, xsherrors.ErrCodePermissionDenied)
	})
}

func TestOutputLimitKeepsMostRecentBytes(t *testing.T) {
	testutil.RequireCommand(t, "sh")
	sh := shellFor(t)
	script := `i=0; while [ $i -lt 2000 ]; do echo "line $i"; i=$((i+1)); done; echo tail >&2`

	out, err := sh.MustCmd("sh -c {script}", script).WithOutputLimit(64).Output()
	require.NoError(t, err)
	assert.Len(t, out.Stdout, 64)
	assert.True(t, strings.HasSuffix(string(out.Stdout), "line 1998\nline 1999\n"))
	assert.Equal(t, "tail\n", string(out.Stderr))
}

func TestDefaultOutputLimit(t *testing.T) {
	testutil.RequireCommand(t, "head")
	out, err := shellFor(t).MustCmd("head -c {n} /dev/zero", DefaultOutputLimit*2).Output()
	require.NoError(t, err)
	assert.Len(t, out.Stdout, DefaultOutputLimit)
}

func TestReadIsNotLimitedByDefault(t *testing.T) {
	testutil.RequireCommand(t, "head", "tr")
	size := DefaultOutputLimit + 1000
	out, err := shellFor(t).MustCmd("sh -c {script}", "head -c "+strconv.Itoa(size)+" /dev/zero | tr '\\0' a").Read()
	require.NoError(t, err)
	assert.Len(t, out, size)
}

func TestFailedReadKeepsOnlyTailInError(t *testing.T) {
	testutil.RequireCommand(t, "head", "tr")
	size := DefaultOutputLimit*2 + 100
	script := "head -c " + strconv.Itoa(size) + " /dev/zero | tr '\\0' x; echo end; exit 1"

	_, err := shellFor(t).MustCmd("sh -c {script}", script).Read()
	cerr := requireCode(t, err, xsherrors.ErrCodeCommandFailed)
	assert.Len(t, cerr.Stdout, DefaultOutputLimit)
	assert.True(t, strings.HasSuffix(string(cerr.Stdout), "xxend\n"))
	assert.Less(t, len(cerr.Error()), DefaultOutputLimit+200)

	_, err = shellFor(t).MustCmd("sh -c {script}", script).WithOutputLimit(16).Read()
	cerr = requireCode(t, err, xsherrors.ErrCodeCommandFailed)
	assert.Equal(t, "xxxxxxxxxxxxend\n", string(cerr.Stdout))
}

func TestReadStderrCombined(t *testing.T) {
	testutil.RequireCommand(t, "sh")
	out, err := shellFor(t).MustCmd("sh -c {script}", "echo out; echo err >&2").
		WithOutput(CaptureCombined).
		ReadStderr()
	require.NoError(t, err)
	assert.Equal(t, "out\nerr", out)
}

func TestTimeoutKillsProcessGroup(t *testing.T) {
	testutil.RequireCommand(t, "sh", "sleep")
	tmp := t.TempDir()
	pidFile := filepath.Join(tmp, "parent.pid")
	childFile := filepath.Join(tmp, "child.pid")
	script := testutil.WriteScript(t, tmp, "spawn.sh", `
echo $$ > "$1"
sleep 30 &
echo $! > "$2"
echo started
wait
`)

	start := time.Now()
	out, err := shellFor(t).MustCmd("{script} {pid} {child}", script, pidFile, childFile).
		WithTimeout(time.Second).
		Output()
	elapsed := time.Since(start)

	cerr := requireCode(t, err, xsherrors.ErrCodeCommandTimeout)
	assert.True(t, cerr.Status.TimedOut)
	assert.True(t, out.Status.TimedOut)
	assert.Equal(t, "started\n", string(out.Stdout), "partial output is kept")
	assert.Contains(t, cerr.Error(), "command timed out after 1s")
	assert.Less(t, elapsed, 10*time.Second)

	assert.True(t, testutil.WaitForExit(testutil.ReadPID(t, pidFile), 5*time.Second), "script still running")
	assert.True(t, testutil.WaitForExit(testutil.ReadPID(t, childFile), 5*time.Second), "grandchild still running")
}

func TestTimeoutNotReachedSucceeds(t *testing.T) {
	testutil.RequireCommand(t, "echo")
	out, err := shellFor(t).MustCmd("echo fast").WithTimeout(10 * time.Second).Read()
	require.NoError(t, err)
	assert.Equal(t, "fast", out)
}

func TestContextCancel(t *testing.T) {
	testutil.RequireCommand(t, "sleep")
	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(200*time.Millisecond, cancel)

	start := time.Now()
	err := shellFor(t).MustCmd("sleep 30").Quiet().RunContext(ctx)
	requireCode(t, err, xsherrors.ErrCodeCommandCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestConcurrentRuns(t *testing.T) {
	testutil.RequireCommand(t, "sh")
	c := shellFor(t).MustCmd("sh -c {script}", `echo "$XSH_N"`)

	var wg sync.WaitGroup
	results := make([]string, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.WithEnv("XSH_N", strconv.Itoa(i)).Read()
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, strconv.Itoa(i), results[i])
	}
}

type recordingExecutor struct {
	RealExecutor
	mu    sync.Mutex
	names []string
}

func (r *recordingExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	return r.RealExecutor.CommandContext(ctx, name, args...)
}

func (r *recordingExecutor) Command(name string, args ...string) *exec.Cmd {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	return r.RealExecutor.Command(name, args...)
}

func TestCustomExecutor(t *testing.T) {
	testutil.RequireCommand(t, "true")
	rec := &recordingExecutor{}
	c := shellFor(t).MustCmd("true").Quiet().WithExecutor(rec)

	require.NoError(t, c.Run())
	require.NoError(t, c.WithTimeout(time.Minute).Run())
	assert.Equal(t, []string{"true", "true"}, rec.names)
}
