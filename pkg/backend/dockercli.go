package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// CLIBackend shells out to a Docker-compatible CLI binary, following the
// teacher's pkg/image/docker.LocalDocker: build an argument slice, run it,
// parse stdout. No Docker SDK is linked; "docker" and "podman" both expose
// the same CLI surface this backend needs.
type CLIBackend struct {
	// Bin is the CLI binary to invoke, e.g. "docker" or "podman". Defaults
	// to "docker" if empty.
	Bin string
}

func (b *CLIBackend) bin() string {
	if b.Bin == "" {
		return "docker"
	}
	return b.Bin
}

func (b *CLIBackend) run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, b.bin(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Create pulls spec.Ref() if needed and creates a (not-yet-started)
// container for it, wiring in env vars, port publishes, and bind mounts.
func (b *CLIBackend) Create(ctx context.Context, spec ContainerSpec) (string, error) {
	logrus.WithField("image", spec.Ref()).Debug("pulling image if not present")
	if _, _, err := b.run(ctx, "image", "inspect", spec.Ref()); err != nil {
		if _, stderr, err := b.run(ctx, "pull", spec.Ref()); err != nil {
			return "", errlog.Wrap(errlog.Container, err, "pulling %s: %s", spec.Ref(), strings.TrimSpace(stderr))
		}
	}

	args := []string{"create", "--name", spec.Name}
	for _, e := range spec.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", e.Key, e.Value))
	}
	for _, p := range spec.Ports {
		args = append(args, "-p", fmt.Sprintf("%d:%d", p, p))
	}
	for _, v := range spec.Volumes {
		mode := "rw"
		if v.ReadOnly {
			mode = "ro"
		}
		args = append(args, "-v", fmt.Sprintf("%s:%s:%s", v.HostPath, v.ContainerPath, mode))
	}
	for k, v := range spec.Labels {
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, spec.Ref())

	stdout, stderr, err := b.run(ctx, args...)
	if err != nil {
		return "", errlog.Wrap(errlog.Container, err, "creating container %s: %s", spec.Name, strings.TrimSpace(stderr))
	}
	return strings.TrimSpace(stdout), nil
}

// Start starts a previously created container.
func (b *CLIBackend) Start(ctx context.Context, id string) error {
	if _, stderr, err := b.run(ctx, "start", id); err != nil {
		return errlog.Wrap(errlog.Container, err, "starting container %s: %s", id, strings.TrimSpace(stderr))
	}
	return nil
}

// Exec runs command inside id and reports its exit code without treating a
// nonzero exit as a Go error -- the caller (pkg/executor) decides whether
// that exit code satisfies a step's expectation.
func (b *CLIBackend) Exec(ctx context.Context, id string, command []string) (ExecResult, error) {
	args := append([]string{"exec", id}, command...)
	start := time.Now()
	cmd := exec.CommandContext(ctx, b.bin(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		return ExecResult{}, errlog.Wrap(errlog.Container, err, "running exec in container %s", id)
	}

	return ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: elapsed,
	}, nil
}

// Logs returns the combined stdout/stderr log of id.
func (b *CLIBackend) Logs(ctx context.Context, id string) (string, error) {
	stdout, stderr, err := b.run(ctx, "logs", id)
	if err != nil {
		return "", errlog.Wrap(errlog.Container, err, "fetching logs for %s: %s", id, strings.TrimSpace(stderr))
	}
	return stdout + stderr, nil
}

type inspectResponse struct {
	State struct {
		Running bool `json:"Running"`
		Health  *struct {
			Status string `json:"Status"`
		} `json:"Health"`
	} `json:"State"`
}

// Inspect reports a container's running/health state.
func (b *CLIBackend) Inspect(ctx context.Context, id string) (Info, error) {
	stdout, stderr, err := b.run(ctx, "inspect", id)
	if err != nil {
		return Info{}, errlog.Wrap(errlog.Container, err, "inspecting container %s: %s", id, strings.TrimSpace(stderr))
	}
	info, err := parseInspectOutput(id, []byte(stdout))
	if err != nil {
		return Info{}, errlog.Wrap(errlog.Container, err, "parsing inspect output for %s", id)
	}
	return info, nil
}

// parseInspectOutput decodes `docker inspect`'s JSON array into an Info. A
// container with no HEALTHCHECK directive reports no Health block at all;
// this treats "running" as "healthy" in that case so such a service never
// gets stuck waiting for a health signal it was never configured to send.
func parseInspectOutput(id string, data []byte) (Info, error) {
	var resp []inspectResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Info{}, err
	}
	if len(resp) == 0 {
		return Info{}, fmt.Errorf("no inspect data returned for %s", id)
	}

	info := Info{ID: id, Running: resp[0].State.Running}
	if resp[0].State.Health != nil {
		info.Healthy = resp[0].State.Health.Status == "healthy"
	} else {
		info.Healthy = info.Running
	}
	return info, nil
}

// Stop stops id, waiting up to timeout before the runtime sends SIGKILL.
func (b *CLIBackend) Stop(ctx context.Context, id string, timeout time.Duration) error {
	seconds := strconv.Itoa(int(timeout.Seconds()))
	if _, stderr, err := b.run(ctx, "stop", "-t", seconds, id); err != nil {
		return errlog.Wrap(errlog.Container, err, "stopping container %s: %s", id, strings.TrimSpace(stderr))
	}
	return nil
}

// Remove deletes a stopped container and its anonymous volumes.
func (b *CLIBackend) Remove(ctx context.Context, id string) error {
	if _, stderr, err := b.run(ctx, "rm", "-v", id); err != nil {
		return errlog.Wrap(errlog.Container, err, "removing container %s: %s", id, strings.TrimSpace(stderr))
	}
	return nil
}
