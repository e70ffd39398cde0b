package app

import (
	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/plugin"
)

// NewCmdPlugins builds `cleanroom plugins`, which lists the service
// drivers a scenario's `service.plugin` field may name.
func NewCmdPlugins() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List available service drivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range plugin.List() {
				cmd.Printf("%-12s %s\n", d.Name, d.Description)
			}
			return nil
		},
	}
}
