package app

import (
	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// NewCmdValidate builds `cleanroom validate`, which checks that scenario
// files parse and satisfy their own schema invariants without running
// anything. Loading runs the same checks, so a file with violations makes
// loadScenarios fail with that file's first violation, and later files are
// not checked; the command then exits 2 (Config kind).
func NewCmdValidate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [scenario files...]",
		Short: "Check scenario files for config and template errors without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadScenarios(args)
			if err != nil {
				return err
			}

			var bad int
			for _, scenario := range set.Scenarios {
				errs := scenario.Validate()
				for _, e := range errs {
					cmd.PrintErrf("%s: %s\n", scenario, e)
				}
				if len(errs) > 0 {
					bad++
				}
			}
			if bad > 0 {
				return errlog.New(errlog.Config, "%d of %d scenario(s) failed validation", bad, len(set.Scenarios))
			}
			cmd.Printf("%d scenario(s) valid\n", len(set.Scenarios))
			return nil
		},
	}
	registerVarFlag(cmd.Flags())
	return cmd
}
