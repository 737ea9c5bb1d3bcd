package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/grovetools/xsh/cli"
	"github.com/grovetools/xsh/command"
	xsherrors "github.com/grovetools/xsh/errors"
)

type runOptions struct {
	dir          string
	env          []string
	unset        []string
	clearEnv     bool
	stdin        string
	timeout      time.Duration
	output       string
	limit        int
	quiet        bool
	secret       bool
	ignoreStatus bool
	read         bool
	readStderr   bool
}

type outcomeJSON struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Signal   string `json:"signal,omitempty"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Duration string `json:"duration"`
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [flags] TEMPLATE [VALUE...]",
		Short: "Render a command template and run it",
		Long: `Renders TEMPLATE with the given values and runs the result. Values bind to
markers left to right. A value bound to {name...} is split like a shell
would split it; any other value is passed as a single argument.

Examples:
  xsh run 'git commit -m {msg}' 'fix the parser'
  xsh run --timeout 30s --output combined 'go test {pkgs...}' './... -run TestX'
  printf 'a\nb\n' | xsh run --stdin - --read 'sort -r'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplate(cmd, opts, args[0], args[1:])
		},
	}

	f := cmd.Flags()
	f.SetInterspersed(false)
	f.StringVarP(&opts.dir, "dir", "C", "", "Working directory, relative to the current one")
	f.StringArrayVarP(&opts.env, "env", "e", nil, "Set an environment variable (KEY=VALUE, repeatable)")
	f.StringArrayVar(&opts.unset, "unset", nil, "Remove an environment variable (repeatable)")
	f.BoolVar(&opts.clearEnv, "clear-env", false, "Start from an empty environment")
	f.StringVar(&opts.stdin, "stdin", "", "Feed a file to the command's stdin, or - for this process's stdin")
	f.DurationVar(&opts.timeout, "timeout", 0, "Kill the command after this long")
	f.StringVar(&opts.output, "output", "", "Output handling: capture, combined, inherit, or ignore")
	f.IntVar(&opts.limit, "limit", 0, "Bytes of captured output kept per stream")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Do not echo the command before running it")
	f.BoolVar(&opts.secret, "secret", false, "Hide the command line in echo and errors")
	f.BoolVar(&opts.ignoreStatus, "ignore-status", false, "Succeed even if the command exits non-zero")
	f.BoolVar(&opts.read, "read", false, "Print the command's stdout with the trailing newline trimmed")
	f.BoolVar(&opts.readStderr, "read-stderr", false, "Print the command's stderr with the trailing newline trimmed")
	cmd.MarkFlagsMutuallyExclusive("read", "read-stderr")

	return cmd
}

func runTemplate(cmd *cobra.Command, opts runOptions, template string, raw []string) error {
	log := cli.GetLogger(cmd)
	common := cli.GetOptions(cmd)

	cfg, err := cli.LoadConfig(common)
	if err != nil {
		return err
	}

	t, err := command.Parse(template)
	if err != nil {
		return err
	}
	values, err := bindValues(t, raw)
	if err != nil {
		return err
	}

	sh, err := command.NewShell()
	if err != nil {
		return err
	}
	c, err := command.FromTemplate(sh, t, values...)
	if err != nil {
		return err
	}
	c = c.WithLogger(log)

	if c, err = cli.ApplyDefaults(cfg, c); err != nil {
		return err
	}
	if c, err = applyRunFlags(c, opts); err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	switch {
	case opts.read:
		text, err := c.ReadContext(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	case opts.readStderr:
		text, err := c.ReadStderrContext(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	case common.JSONOutput:
		outcome, err := c.OutputContext(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomeJSON{
			Command:  c.String(),
			ExitCode: outcome.Status.Code,
			Signal:   outcome.Status.Signal,
			Stdout:   strings.ToValidUTF8(string(outcome.Stdout), "\uFFFD"),
			Stderr:   strings.ToValidUTF8(string(outcome.Stderr), "\uFFFD"),
			Duration: outcome.Duration.String(),
		})
	default:
		return c.RunContext(ctx)
	}
}

func applyRunFlags(c command.Command, opts runOptions) (command.Command, error) {
	if opts.dir != "" {
		c = c.WithDir(opts.dir)
	}
	if opts.clearEnv {
		c = c.WithClearEnv()
	}
	for _, kv := range opts.env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return c, xsherrors.InvalidInput("env", fmt.Sprintf("expected KEY=VALUE, got %q", kv))
		}
		c = c.WithEnv(key, value)
	}
	for _, key := range opts.unset {
		c = c.WithoutEnv(key)
	}

	switch opts.stdin {
	case "":
	case "-":
		if term.IsTerminal(int(os.Stdin.Fd())) {
			c = c.WithInheritedStdin()
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return c, xsherrors.Wrap(err, xsherrors.ErrCodeInvalidInput, "failed to read stdin")
			}
			c = c.WithStdin(data)
		}
	default:
		data, err := os.ReadFile(opts.stdin)
		if err != nil {
			return c, xsherrors.Wrap(err, xsherrors.ErrCodeInvalidInput, "failed to read stdin file").
				WithDetail("path", opts.stdin)
		}
		c = c.WithStdin(data)
	}

	if opts.timeout > 0 {
		c = c.WithTimeout(opts.timeout)
	}
	if opts.output != "" {
		mode, err := command.ParseOutputMode(opts.output)
		if err != nil {
			return c, xsherrors.InvalidInput("output", err.Error())
		}
		c = c.WithOutput(mode)
	}
	if opts.limit > 0 {
		c = c.WithOutputLimit(opts.limit)
	}
	if opts.quiet {
		c = c.Quiet()
	}
	if opts.secret {
		c = c.Secret()
	}
	if opts.ignoreStatus {
		c = c.IgnoreStatus()
	}
	return c, nil
}
