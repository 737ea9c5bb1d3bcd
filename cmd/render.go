package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/xsh/cli"
	"github.com/grovetools/xsh/command"
)

type renderedCommand struct {
	Program string   `json:"program"`
	Args    []string `json:"args"`
	Line    string   `json:"line"`
}

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render TEMPLATE [VALUE...]",
		Short: "Print the command a template renders to, without running it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := command.Parse(args[0])
			if err != nil {
				return err
			}
			values, err := bindValues(t, args[1:])
			if err != nil {
				return err
			}
			argv, err := t.Render(values...)
			if err != nil {
				return err
			}
			c := command.NewArgv(command.NewShellFrom("", nil), argv[0], argv[1:]...)

			if cli.GetOptions(cmd).JSONOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(renderedCommand{
					Program: c.Program(),
					Args:    c.Arguments(),
					Line:    c.String(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.String())
			return nil
		},
	}
}
