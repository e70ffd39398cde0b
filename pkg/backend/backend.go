// Package backend talks to whatever container runtime is actually on the
// machine (spec.md section 4.7). Cleanroom never links a Docker/Podman SDK:
// like the teacher's pkg/image/docker client, it shells out to the CLI and
// parses its output, so the same code works against Docker Desktop, a
// remote Docker context, or Podman's Docker-compatible CLI shim.
package backend

import (
	"context"
	"time"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/mount"
)

// ContainerSpec is everything a backend needs to create one service
// container: the validated, renamed form of config.ServiceSpec plus
// canonicalized mounts from pkg/mount.
type ContainerSpec struct {
	Name    string
	Image   string
	Tag     string
	Env     []config.EnvPair
	Ports   []int
	Volumes []mount.VolumeMount
	Labels  map[string]string
}

// Ref returns the image reference ("image:tag", or "image:latest" if Tag is
// empty) a backend should pull/run.
func (c ContainerSpec) Ref() string {
	if c.Tag == "" {
		return c.Image + ":latest"
	}
	return c.Image + ":" + c.Tag
}

// ExecResult is the outcome of running a command inside a running
// container, the shape pkg/executor needs to check a step's expectations.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Info is what Inspect reports back about a running container.
type Info struct {
	ID      string
	Running bool
	Healthy bool
}

// ContainerBackend is the capability surface Cleanroom needs from a
// container runtime. CLIBackend (which shells out to a container CLI) and
// DryRunBackend (which only logs) implement it; the interface exists so pkg/service and pkg/executor never import os/exec or
// know what CLI is actually installed.
type ContainerBackend interface {
	// Create pulls the image if needed and creates (but does not start) a
	// container matching spec, returning its runtime ID.
	Create(ctx context.Context, spec ContainerSpec) (id string, err error)
	// Start starts a previously created container.
	Start(ctx context.Context, id string) error
	// Exec runs command inside a running container and returns its output.
	Exec(ctx context.Context, id string, command []string) (ExecResult, error)
	// Logs returns the full combined stdout/stderr log of a container.
	Logs(ctx context.Context, id string) (string, error)
	// Inspect reports a container's current runtime state.
	Inspect(ctx context.Context, id string) (Info, error)
	// Stop stops a running container, waiting up to timeout before killing it.
	Stop(ctx context.Context, id string, timeout time.Duration) error
	// Remove deletes a stopped container and any anonymous volumes it owns.
	Remove(ctx context.Context, id string) error
}
