package app

import (
	"github.com/spf13/cobra"
)

// NewCmdLint builds `cleanroom lint`. It runs the same structural checks as
// `validate`, but prints the violation as a warning and always exits 0 --
// meant for editor integrations and CI advisory steps that want visibility
// without blocking a build the way `validate` does. Loading runs the checks,
// so only the first violation of the first failing file is printed and
// later files are not checked.
func NewCmdLint() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint [scenario files...]",
		Short: "Report scenario problems as warnings, without failing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadScenarios(args)
			if err != nil {
				cmd.PrintErrln(err)
				return nil
			}
			for _, scenario := range set.Scenarios {
				for _, e := range scenario.Validate() {
					cmd.PrintErrf("warning: %s: %s\n", scenario, e)
				}
			}
			return nil
		},
	}
	registerVarFlag(cmd.Flags())
	return cmd
}
