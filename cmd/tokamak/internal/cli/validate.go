package cli

import (
	"github.com/spf13/cobra"

	"github.com/dflemstr/tokamak-go/internal/policy"
)

// newValidateCommand builds `tokamak validate <policy-dir>`, which loads
// and type-checks a CUE retry-policy directory without running anything
// against it.
func newValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <policy-dir>",
		Short: "validate a retry policy file against its CUE schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			file, err := policy.Load(dir)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading policy", err)
			}

			names := make([]string, 0, len(file.Groups))
			for _, g := range file.Groups {
				names = append(names, g.Name)
			}
			return opts.formatter().Success(map[string]any{
				"groups": names,
			})
		},
	}
}
