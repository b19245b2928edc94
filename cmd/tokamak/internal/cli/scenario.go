package cli

import (
	"github.com/spf13/cobra"

	"github.com/dflemstr/tokamak-go/internal/harness"
)

// newScenarioCommand builds `tokamak scenario list <file>`, which prints
// the scenarios a YAML fixture file describes.
func newScenarioCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "inspect scenario fixture files",
	}
	cmd.AddCommand(newScenarioListCommand(opts))
	return cmd
}

func newScenarioListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <scenarios.yaml>",
		Short: "list the scenarios described by a fixture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := harness.LoadScenarios(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "loading scenarios", err)
			}
			return opts.formatter().Success(scenarios)
		},
	}
}
