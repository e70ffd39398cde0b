package app

import (
	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/scaffold"
)

var initImage string

// NewCmdInit builds `cleanroom init`, a thin wrapper over pkg/scaffold that
// writes a starter scenario and README into the current (or given)
// directory.
func NewCmdInit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Scaffold a new scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cmd.Flags().GetString("dir")
			if err != nil {
				return err
			}
			return scaffold.Init(scaffold.Options{
				Dir:   dir,
				Name:  args[0],
				Image: initImage,
			})
		},
	}
	cmd.Flags().String("dir", ".", "directory to scaffold into")
	cmd.Flags().StringVar(&initImage, "image", "", "base image for the starter service (default alpine:latest)")
	return cmd
}
