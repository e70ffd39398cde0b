package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/backend"
	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
	"github.com/cleanroom-dev/cleanroom/pkg/executor"
	"github.com/cleanroom-dev/cleanroom/pkg/fingerprint"
	"github.com/cleanroom-dev/cleanroom/pkg/mount"
	"github.com/cleanroom-dev/cleanroom/pkg/report"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
	"github.com/cleanroom-dev/cleanroom/pkg/tarball"
)

var (
	runReportFormat string
	runCachePath    string
	runIfChanged    bool
	runConcurrency  int
	runMountRoots   []string
	runArchivePath  string
)

// NewCmdRun builds `cleanroom run`.
func NewCmdRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario files...]",
		Short: "Run one or more scenarios and validate the spans they emit",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRun,
	}
	registerVarFlag(cmd.Flags())
	cmd.Flags().StringVar(&runReportFormat, "report", "human", "report format: human, json, junit, digest")
	cmd.Flags().StringVar(&runCachePath, "cache", ".cleanroom/fingerprints.toml", "fingerprint cache path")
	cmd.Flags().BoolVar(&runIfChanged, "if-changed", false, "skip scenarios whose inputs are unchanged since their last pass")
	cmd.Flags().IntVar(&runConcurrency, "concurrency", 4, "maximum number of scenarios to run at once")
	cmd.Flags().StringArrayVar(&runMountRoots, "mount-root", nil, "allowed bind-mount root (repeatable); defaults to the temp dir and cwd")
	cmd.Flags().StringVar(&runArchivePath, "archive", "", "write a gzipped tarball of this run's reports (all formats) to the given path")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	set, err := loadScenarios(args)
	if err != nil {
		return err
	}

	cache, err := fingerprint.OpenCache(runCachePath)
	if err != nil {
		return err
	}

	policy := mount.DefaultPolicy()
	if len(runMountRoots) > 0 {
		policy = mount.NewPolicy(runMountRoots)
	}

	ctrBackend := &backend.CLIBackend{}

	results := executor.RunAll(context.Background(), set, runConcurrency, func(scenario *config.Scenario) executor.Options {
		return executor.Options{
			Backend:     ctrBackend,
			MountPolicy: policy,
			Collector:   span.NewCollector(),
			Cache:       cache,
			IfChanged:   runIfChanged,
		}
	})

	if err := report.Write(os.Stdout, report.Format(runReportFormat), results); err != nil {
		return err
	}

	if runArchivePath != "" {
		if err := archiveReports(results, runArchivePath); err != nil {
			return err
		}
	}

	summary := report.Summarize(results)
	if !summary.AllPassed() {
		return errlog.New(errlog.Validation, "%d of %d scenarios did not pass", summary.Failed+summary.Errored, summary.Total)
	}
	return nil
}

// archiveReports writes this run's report in every format into a scratch
// directory and bundles it into a gzipped tarball at archivePath, for
// attaching to a bug report or CI artifact store.
func archiveReports(results []executor.Result, archivePath string) error {
	dir, err := os.MkdirTemp("", "cleanroom-archive-*")
	if err != nil {
		return errlog.Wrap(errlog.Io, err, "creating archive scratch dir")
	}
	defer os.RemoveAll(dir)

	for _, format := range []report.Format{report.Human, report.JSON, report.JUnit, report.Digest} {
		f, err := os.Create(filepath.Join(dir, string(format)+".txt"))
		if err != nil {
			return errlog.Wrap(errlog.Io, err, "creating %s report in archive", format)
		}
		err = report.Write(f, format, results)
		f.Close()
		if err != nil {
			return err
		}
	}

	if err := tarball.DirToTarball(dir, archivePath, true); err != nil {
		return errlog.Wrap(errlog.Io, err, "writing archive to %s", archivePath)
	}
	return nil
}
