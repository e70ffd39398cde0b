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

package main

import (
	"os"

	"github.com/cleanroom-dev/cleanroom/cmd/cleanroom/app"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// Main entry point of the program. Subcommands return structured
// *errlog.Error where possible so the exit code can follow the error's
// Kind (spec.md section 6) rather than a flat 1.
func main() {
	err := app.NewRootCommand().Execute()
	if err != nil {
		errlog.LogError(err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if e, ok := errlog.As(err); ok {
		return e.Kind.ExitCode()
	}
	return 64
}
