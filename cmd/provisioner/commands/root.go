// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the provisioner CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "provisioner",
		Short:         "Provision cloud accounts and networks through a compensating step pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Run())
	cmd.AddCommand(Validate())
	cmd.AddCommand(Steps())
	cmd.AddCommand(Version())

	return cmd
}
