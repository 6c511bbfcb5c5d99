package commands

import (
	"github.com/spf13/cobra"

	"github.com/cloudprov/provisioner/cmd/provisioner/handlers"
)

// Steps returns the command that lists the available step types.
func Steps() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List available step types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Steps(cmd.OutOrStdout())
		},
	}
}
