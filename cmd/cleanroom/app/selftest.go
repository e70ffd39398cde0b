package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/backend"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
	"github.com/cleanroom-dev/cleanroom/pkg/executor"
	"github.com/cleanroom-dev/cleanroom/pkg/fingerprint"
	"github.com/cleanroom-dev/cleanroom/pkg/mount"
	"github.com/cleanroom-dev/cleanroom/pkg/report"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

// smokeScenario is a tiny bundled scenario exercising one service and one
// step, with no expectations, run end to end by `self-test`
// against whatever backend is actually configured on the host -- the same
// scenario regardless of where cleanroom is installed, so a failure here
// means the install (not a user's scenario) is broken.
const smokeScenario = `
[meta]
name = "cleanroom-self-test"

[services.probe]
image = "alpine"
tag = "latest"

[[steps]]
name = "echo"
service = "probe"
command = ["echo", "cleanroom self-test ok"]
`

// NewCmdSelfTest builds `cleanroom self-test`, a smoke check that the
// configured container backend works before a user's first real run.
func NewCmdSelfTest() *cobra.Command {
	return &cobra.Command{
		Use:   "self-test",
		Short: "Run a bundled smoke scenario against the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.MkdirTemp("", "cleanroom-selftest-*")
			if err != nil {
				return errlog.Wrap(errlog.Io, err, "creating self-test scratch dir")
			}
			defer os.RemoveAll(dir)

			path := filepath.Join(dir, "selftest.toml")
			if err := os.WriteFile(path, bytes.TrimLeft([]byte(smokeScenario), "\n"), 0o644); err != nil {
				return errlog.Wrap(errlog.Io, err, "writing self-test scenario")
			}

			set, err := loadScenarios([]string{path})
			if err != nil {
				return err
			}

			cache, err := fingerprint.OpenCache(filepath.Join(dir, "cache.json"))
			if err != nil {
				return err
			}

			result := executor.Run(context.Background(), set.Scenarios[0], executor.Options{
				Backend:     &backend.CLIBackend{},
				MountPolicy: mount.DefaultPolicy(),
				Collector:   span.NewCollector(),
				Cache:       cache,
			})

			if err := report.Write(cmd.OutOrStdout(), report.Human, []executor.Result{result}); err != nil {
				return err
			}
			if result.Outcome != executor.Passed {
				return errlog.New(errlog.Container, "self-test failed: backend is not healthy")
			}
			return nil
		},
	}
}
