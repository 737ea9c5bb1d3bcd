package command

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// Executor creates exec.Cmd instances. This abstraction allows for dependency
// injection, enabling test-specific command creation logic (e.g., setting up
// a PATH with mock binaries) without modifying production code.
type Executor interface {
	// Command creates a new exec.Cmd instance for the given command and arguments.
	Command(name string, args ...string) *exec.Cmd

	// CommandContext creates a new context-aware exec.Cmd instance.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor is the production implementation of the Executor interface,
// which uses the standard os/exec package to create commands.
type RealExecutor struct{}

// Command creates a standard exec.Cmd.
func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

func (c Command) executorOrDefault() Executor {
	if c.executor != nil {
		return c.executor
	}
	return &RealExecutor{}
}

// ToExec converts the command into an exec.Cmd for callers that need
// controls this package does not expose, such as extra file descriptors.
// Directory, environment and stdin are applied; stdout and stderr are left
// for the caller. Timeout and output mode are not applied.
func (c Command) ToExec() *exec.Cmd {
	cmd := c.executorOrDefault().Command(c.prog, c.args...) //nolint:gosec // argv comes from a parsed template
	c.prepare(cmd)
	return cmd
}

// prepare applies directory, environment and stdin to cmd.
func (c Command) prepare(cmd *exec.Cmd) {
	cmd.Dir = c.dir
	cmd.Env = c.env.environ()
	switch c.stdinKind {
	case stdinBytes:
		cmd.Stdin = bytes.NewReader(c.stdin)
	case stdinInherit:
		cmd.Stdin = os.Stdin
	}
}
