package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/xsh/cli"
	"github.com/grovetools/xsh/schema"
)

// NewRootCmd assembles the xsh command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("xsh", "Run external commands from templates, without a shell")
	root.Long = `xsh renders a command template into an argument list and runs it directly,
with no shell in between. Values bound to {name} stay one argument no matter
what they contain; values bound to {name...} expand to zero or more arguments.

Examples:
  # Pass a value with spaces as one argument
  xsh run 'git commit -m {msg}' 'fix the parser'

  # Expand a list of files
  xsh run 'rm -f {files...}' 'a.txt b.txt'

  # Print the argument vector instead of running it
  xsh render --json 'cargo build --target {t}' wasm32`

	root.AddCommand(NewRunCmd())
	root.AddCommand(NewRenderCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(cli.NewSchemaCommand(schema.Embedded()))
	root.AddCommand(cli.NewVersionCommand("xsh"))
	return root
}
