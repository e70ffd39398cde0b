package app

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

var fmtWrite bool

// NewCmdFmt builds `cleanroom fmt`, which rewrites a scenario file into
// canonical TOML (spec.md section 8's idempotence property: fmt(fmt(x)) ==
// fmt(x)). Unlike `render`, fmt never touches template directives -- it
// operates on pre-rendered TOML only, matching config.Load's documented
// nil-renderer behavior for this exact use case.
func NewCmdFmt() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [scenario files...]",
		Short: "Rewrite scenario files into canonical TOML",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return errlog.Wrap(errlog.Io, err, "reading %s", path)
				}
				canon, err := config.Canonicalize(raw)
				if err != nil {
					return err
				}
				if bytes.Equal(bytes.TrimSpace(raw), bytes.TrimSpace(canon)) {
					continue
				}
				if !fmtWrite {
					cmd.Printf("%s would be reformatted\n", path)
					continue
				}
				if err := os.WriteFile(path, canon, 0o644); err != nil {
					return errlog.Wrap(errlog.Io, err, "writing %s", path)
				}
				cmd.Printf("%s reformatted\n", path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "write the canonical form back to disk instead of reporting it")
	return cmd
}
