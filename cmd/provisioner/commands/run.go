package commands

import (
	"github.com/spf13/cobra"

	"github.com/cloudprov/provisioner/cmd/provisioner/handlers"
)

// Run returns the command that executes a pipeline.
//
// Required flags:
//
//	--config, -c: Path to the pipeline file
//
// Environment variables:
//
//	PROVISIONER_REQUEST_TIMEOUT, PROVISIONER_POOL_SIZE: pool defaults
//	AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY: manifest archive credentials
func Run() *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a provisioning pipeline",
		Long: `Execute every step of a provisioning pipeline in order.

If a step fails, every step that completed before it is rolled back in
reverse order and the command exits non-zero.

Examples:
  # Dry run: every step simulates and no collaborator is contacted
  provisioner run -c pipeline.yaml --mode simulate

  # Live run without the confirmation prompt
  provisioner run -c pipeline.yaml --yes

  # Exercise rollback by forcing a step to fail
  provisioner run -c pipeline.yaml --fail-step CREATE_VPC_SUBNETS`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to pipeline file (required)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Default execution mode: run, simulate or fail (overrides the file)")
	cmd.Flags().StringSliceVar(&opts.FailSteps, "fail-step", nil, "Force the step with this type or id to fail (repeatable)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip the confirmation prompt for live runs")
	cmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Write run metrics in Prometheus text format to this file")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
