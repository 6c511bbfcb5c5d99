package commands

import (
	"github.com/spf13/cobra"

	"github.com/cloudprov/provisioner/cmd/provisioner/handlers"
)

// Validate returns the command that checks a pipeline file without running it.
func Validate() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a pipeline file",
		Long: `Load and validate a pipeline file.

Reports configuration errors and warnings and checks that every step type
is known. No step is initialized and no collaborator is contacted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Validate(cmd.OutOrStdout(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to pipeline file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
