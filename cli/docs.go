package cli

import (
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates a command that prints the JSON schema of the
// configuration file.
func NewSchemaCommand(schemaJSON []byte) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of xsh.yml",
		Long:  `Prints the JSON schema used to validate xsh.yml and xsh.toml, for editor integration.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := out.Write(schemaJSON); err != nil {
				return err
			}
			if len(schemaJSON) > 0 && schemaJSON[len(schemaJSON)-1] != '\n' {
				_, err := out.Write([]byte("\n"))
				return err
			}
			return nil
		},
	}
}
