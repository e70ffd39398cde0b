package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/backend"
	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/executor"
	"github.com/cleanroom-dev/cleanroom/pkg/fingerprint"
	"github.com/cleanroom-dev/cleanroom/pkg/mount"
	"github.com/cleanroom-dev/cleanroom/pkg/report"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
	"github.com/cleanroom-dev/cleanroom/pkg/watch"
)

// NewCmdDev builds `cleanroom dev`, the watch-and-rerun developer loop:
// every time the scenario file changes on disk, any in-flight run is
// cancelled and a fresh one starts.
func NewCmdDev() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev <scenario file>",
		Short: "Watch a scenario file and re-run it on every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cache, err := fingerprint.OpenCache(".cleanroom/fingerprints.toml")
			if err != nil {
				return err
			}

			runOnce := func(ctx context.Context) {
				scenario, err := loadScenario(path)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					return
				}
				result := executor.Run(ctx, scenario, executor.Options{
					Backend:     &backend.CLIBackend{},
					MountPolicy: mount.DefaultPolicy(),
					Collector:   span.NewCollector(),
					Cache:       cache,
				})
				report.Write(cmd.OutOrStdout(), report.Human, []executor.Result{result})
			}

			w, err := watch.New([]string{path}, runOnce)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			return w.Start(ctx)
		},
	}
	registerVarFlag(cmd.Flags())
	return cmd
}

func loadScenario(path string) (*config.Scenario, error) {
	set, err := loadScenarios([]string{path})
	if err != nil {
		return nil, err
	}
	return set.Scenarios[0], nil
}
