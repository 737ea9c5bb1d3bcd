package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/xsh/cli"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Display the merged configuration for the current directory",
		Long: `Shows the configuration xsh run would use, after merging:
1. Global config ($XDG_CONFIG_HOME/xsh/xsh.yml)
2. Project config (xsh.yml or xsh.toml, searched upward)
3. Override files (xsh.override.yml)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cli.GetOptions(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if src := cfg.Source(); src != "" {
				fmt.Fprintf(out, "# Source: %s\n", src)
			} else {
				fmt.Fprintln(out, "# No configuration file found; showing defaults")
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
}
