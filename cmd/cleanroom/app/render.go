package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
	"github.com/cleanroom-dev/cleanroom/pkg/template"
)

// NewCmdRender builds `cleanroom render`, which expands a scenario's
// template directives ({{ }}/{% %}/{# #}) and prints the resulting TOML
// without validating or running it -- useful for debugging a `vars`
// substitution or a `fake_*`/`now_rfc3339` call without a full run.
func NewCmdRender() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <scenario file>",
		Short: "Expand a scenario's template directives and print the resulting TOML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			raw, err := os.ReadFile(path)
			if err != nil {
				return errlog.Wrap(errlog.Io, err, "reading %s", path)
			}

			engine := template.Engine{}
			text := string(raw)
			if !engine.IsTemplate(text) {
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}

			rendered, _, err := engine.Render(text, config.RenderOptions{
				SourcePath: path,
				CLIVars:    parseVarFlags(),
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	registerVarFlag(cmd.Flags())
	return cmd
}
