package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/backend"
	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/executor"
	"github.com/cleanroom-dev/cleanroom/pkg/fingerprint"
	"github.com/cleanroom-dev/cleanroom/pkg/mount"
	"github.com/cleanroom-dev/cleanroom/pkg/report"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

// NewCmdDryRun builds `cleanroom dry-run`, which walks the exact same
// executor path as `run` -- service startup order, step sequencing,
// teardown, validator chain -- but against backend.DryRunBackend, so a
// scenario author can see the full plan and which validators would fire
// without a container runtime installed.
func NewCmdDryRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dry-run [scenario files...]",
		Short: "Print the plan for one or more scenarios without touching a container runtime",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadScenarios(args)
			if err != nil {
				return err
			}

			// A dry run never wants to affect --if-changed bookkeeping for
			// a real `run`, so it gets its own cache in the OS temp dir
			// rather than touching .cleanroom/fingerprints.toml.
			cache, err := fingerprint.OpenCache(filepath.Join(os.TempDir(), "cleanroom-dryrun-cache.json"))
			if err != nil {
				return err
			}

			results := executor.RunAll(context.Background(), set, 1, func(scenario *config.Scenario) executor.Options {
				return executor.Options{
					Backend:     &backend.DryRunBackend{Out: cmd.OutOrStdout()},
					MountPolicy: mount.DefaultPolicy(),
					Collector:   span.NewCollector(),
					Cache:       cache,
				}
			})

			return report.Write(cmd.OutOrStdout(), report.Human, results)
		},
	}
	registerVarFlag(cmd.Flags())
	return cmd
}
