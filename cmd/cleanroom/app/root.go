/*
Copyright 2017 Heptio Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package app wires cleanroom's cobra subcommands off a shared RootCmd,
// the same layout as the teacher's cmd/sonobuoy/app.
package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/buildinfo"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

var logLevel string

// NewRootCommand builds the root cleanroom command with every subcommand
// attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cleanroom",
		Short:         "Run hermetic, deterministic integration test scenarios",
		Long:          "Cleanroom runs declarative, container-scoped test scenarios and validates the OpenTelemetry spans they emit",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s)", buildinfo.Version, buildinfo.GitSHA),
	}

	root.PersistentFlags().BoolVarP(&errlog.DebugOutput, "debug", "d", false, "enable debug output (includes stack traces)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: panic, fatal, error, warn, info, debug, trace")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return errlog.SetLevel(logLevel)
	}

	root.AddCommand(
		NewCmdRun(),
		NewCmdValidate(),
		NewCmdRender(),
		NewCmdFmt(),
		NewCmdLint(),
		NewCmdDryRun(),
		NewCmdInit(),
		NewCmdPlugins(),
		NewCmdSelfTest(),
		NewCmdTemplate(),
		NewCmdDev(),
	)
	return root
}
