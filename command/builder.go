package command

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultOutputLimit is the number of most recent bytes kept per captured
// stream.
const DefaultOutputLimit = 128 * 1024

// OutputMode controls what happens to the child's stdout and stderr.
type OutputMode int

const (
	// OutputDefault lets each entry point pick: Run and Read inherit,
	// Output captures both streams.
	OutputDefault OutputMode = iota
	// CaptureBoth captures stdout and stderr into separate buffers.
	CaptureBoth
	// CaptureCombined captures both streams into one buffer in arrival order.
	CaptureCombined
	// Inherit passes the host's stdout and stderr through.
	Inherit
	// Ignore discards both streams.
	Ignore
)

var outputModeNames = map[OutputMode]string{
	OutputDefault:   "default",
	CaptureBoth:     "capture",
	CaptureCombined: "combined",
	Inherit:         "inherit",
	Ignore:          "ignore",
}

func (m OutputMode) String() string {
	if name, ok := outputModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("OutputMode(%d)", int(m))
}

// ParseOutputMode parses the names used by String.
func ParseOutputMode(s string) (OutputMode, error) {
	for mode, name := range outputModeNames {
		if strings.EqualFold(s, name) {
			return mode, nil
		}
	}
	return OutputDefault, fmt.Errorf("unknown output mode %q (want capture, combined, inherit or ignore)", s)
}

type stdinKind int

const (
	stdinNone stdinKind = iota
	stdinBytes
	stdinInherit
)

// envSnapshot is the environment a command runs with: the inherited base
// copied from the Context, and ordered overrides where a nil value removes
// the key.
type envSnapshot struct {
	base  *orderedmap.OrderedMap[string, string]
	vars  *orderedmap.OrderedMap[string, *string]
	clear bool
}

func (e envSnapshot) with(key string, value *string) envSnapshot {
	vars := orderedmap.New[string, *string]()
	if e.vars != nil {
		for pair := e.vars.Oldest(); pair != nil; pair = pair.Next() {
			vars.Set(pair.Key, pair.Value)
		}
	}
	vars.Set(key, value)
	e.vars = vars
	return e
}

func (e envSnapshot) environ() []string {
	out := []string{}
	if !e.clear && e.base != nil {
		for pair := e.base.Oldest(); pair != nil; pair = pair.Next() {
			value := pair.Value
			if e.vars != nil {
				if override, ok := e.vars.Get(pair.Key); ok {
					if override == nil {
						continue
					}
					value = *override
				}
			}
			out = append(out, pair.Key+"="+value)
		}
	}
	if e.vars != nil {
		for pair := e.vars.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value == nil {
				continue
			}
			if !e.clear && e.base != nil {
				if _, inherited := e.base.Get(pair.Key); inherited {
					continue
				}
			}
			out = append(out, pair.Key+"="+*pair.Value)
		}
	}
	return out
}

// Command is an immutable description of a process to run: program,
// arguments, working directory, environment, stdin and output handling.
//
// Every With* method returns an updated copy and leaves the receiver
// untouched, so a Command can be shared and executed from several
// goroutines.
type Command struct {
	prog string
	args []string
	dir  string
	env  envSnapshot

	stdin     []byte
	stdinKind stdinKind

	output       OutputMode
	ignoreStdout bool
	ignoreStderr bool
	ignoreStatus bool
	quiet        bool
	secret       bool

	limit    int
	limitSet bool
	timeout  time.Duration

	echo     io.Writer
	executor Executor
	log      *logrus.Entry
}

// New parses template, renders values into it and returns a Command that
// starts from ctx's working directory and environment. A nil ctx snapshots
// the current process.
func New(ctx Context, template string, values ...any) (Command, error) {
	t, err := Parse(template)
	if err != nil {
		return Command{}, err
	}
	return FromTemplate(ctx, t, values...)
}

// FromTemplate renders an already parsed template.
func FromTemplate(ctx Context, t Template, values ...any) (Command, error) {
	argv, err := t.Render(values...)
	if err != nil {
		return Command{}, err
	}
	return newCommand(ctx, argv[0], argv[1:]), nil
}

// NewArgv builds a Command from an explicit program and argument list.
func NewArgv(ctx Context, program string, args ...string) Command {
	return newCommand(ctx, program, append([]string(nil), args...))
}

func newCommand(ctx Context, prog string, args []string) Command {
	if ctx == nil {
		dir, _ := os.Getwd()
		ctx = NewShellFrom(dir, os.Environ())
	}
	return Command{
		prog: prog,
		args: args,
		dir:  ctx.Dir(),
		env:  envSnapshot{base: copyEnv(ctx.Environment())},
	}
}

// Program returns the program name.
func (c Command) Program() string {
	return c.prog
}

// Arguments returns the rendered arguments, excluding the program.
func (c Command) Arguments() []string {
	return append([]string(nil), c.args...)
}

// Dir returns the working directory the command will run in.
func (c Command) Dir() string {
	return c.dir
}

// Environ returns the environment the command will run with, as KEY=VALUE
// pairs.
func (c Command) Environ() []string {
	return c.env.environ()
}

// Timeout returns the configured timeout, zero when there is none.
func (c Command) Timeout() time.Duration {
	return c.timeout
}

// String renders the command line for humans, quoting arguments that would
// otherwise be ambiguous. Secret commands render as <secret>.
func (c Command) String() string {
	if c.secret {
		return "<secret>"
	}
	return formatCommandLine(c.prog, c.args)
}

// Arg returns a command with arg appended.
func (c Command) Arg(arg string) Command {
	c.args = append(c.args[:len(c.args):len(c.args)], arg)
	return c
}

// Args returns a command with args appended.
func (c Command) Args(args ...string) Command {
	c.args = append(c.args[:len(c.args):len(c.args)], args...)
	return c
}

// WithDir sets the working directory, resolved against the current one when
// relative.
func (c Command) WithDir(dir string) Command {
	c.dir = joinDir(c.dir, dir)
	return c
}

// WithEnv overrides an environment variable.
func (c Command) WithEnv(key, value string) Command {
	c.env = c.env.with(key, &value)
	return c
}

// WithEnvs overrides several environment variables.
func (c Command) WithEnvs(vars map[string]string) Command {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c = c.WithEnv(k, vars[k])
	}
	return c
}

// WithoutEnv removes an environment variable.
func (c Command) WithoutEnv(key string) Command {
	c.env = c.env.with(key, nil)
	return c
}

// WithClearEnv drops the inherited environment and every earlier override.
// Later WithEnv calls still apply.
func (c Command) WithClearEnv() Command {
	c.env.clear = true
	c.env.vars = nil
	return c
}

// WithStdin passes data to the child's standard input.
func (c Command) WithStdin(data []byte) Command {
	c.stdin = append([]byte(nil), data...)
	c.stdinKind = stdinBytes
	return c
}

// WithStdinString is WithStdin for strings.
func (c Command) WithStdinString(data string) Command {
	return c.WithStdin([]byte(data))
}

// WithInheritedStdin connects the child to the host's standard input. By
// default the child's stdin is closed.
func (c Command) WithInheritedStdin() Command {
	c.stdin = nil
	c.stdinKind = stdinInherit
	return c
}

// WithOutput sets how stdout and stderr are handled.
func (c Command) WithOutput(mode OutputMode) Command {
	c.output = mode
	return c
}

// IgnoreStdout discards stdout regardless of the output mode.
func (c Command) IgnoreStdout() Command {
	c.ignoreStdout = true
	return c
}

// IgnoreStderr discards stderr regardless of the output mode.
func (c Command) IgnoreStderr() Command {
	c.ignoreStderr = true
	return c
}

// IgnoreStatus makes Run, Read and ReadStderr succeed on a non-zero exit.
func (c Command) IgnoreStatus() Command {
	c.ignoreStatus = true
	return c
}

// Quiet stops Run from echoing the command line.
func (c Command) Quiet() Command {
	c.quiet = true
	return c
}

// Secret hides the program and arguments in echo lines and error messages.
func (c Command) Secret() Command {
	c.secret = true
	return c
}

// WithTimeout kills the command when it runs longer than d. Zero disables
// the timeout.
func (c Command) WithTimeout(d time.Duration) Command {
	if d < 0 {
		d = 0
	}
	c.timeout = d
	return c
}

// WithOutputLimit sets how many of the most recent bytes are kept per
// captured stream. A limit of zero or less keeps everything.
func (c Command) WithOutputLimit(n int) Command {
	c.limit = n
	c.limitSet = true
	return c
}

// WithEchoWriter sets where Run echoes the command line. Defaults to the
// writer attached to the run context by logging.WithWriter, then stderr.
func (c Command) WithEchoWriter(w io.Writer) Command {
	c.echo = w
	return c
}

// WithExecutor sets the Executor used to create the underlying exec.Cmd.
func (c Command) WithExecutor(e Executor) Command {
	c.executor = e
	return c
}

// WithLogger sets the logger used for execution lifecycle messages.
func (c Command) WithLogger(log *logrus.Entry) Command {
	c.log = log
	return c
}
