package service

import (
	"context"
	"time"

	"github.com/cleanroom-dev/cleanroom/pkg/backend"
	"github.com/cleanroom-dev/cleanroom/pkg/clock"
	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
	"github.com/cleanroom-dev/cleanroom/pkg/mount"
)

// healthPollInterval is how often Start polls Inspect while waiting for a
// service to report healthy.
const healthPollInterval = 250 * time.Millisecond

// Service is one running (or not-yet-started) containerized dependency.
type Service struct {
	Spec        config.ServiceSpec
	ContainerID string

	backend backend.ContainerBackend
	mounts  []mount.VolumeMount
}

// New builds a Service from a validated spec and its canonicalized mounts.
// It does not talk to the container runtime; call Start for that.
func New(spec config.ServiceSpec, b backend.ContainerBackend, mounts []mount.VolumeMount) *Service {
	return &Service{Spec: spec, backend: b, mounts: mounts}
}

// Start creates and starts the service's container, then polls Inspect
// until it reports healthy, ctx is cancelled, or timeout elapses, updating
// lifecycle at each transition.
func (s *Service) Start(ctx context.Context, lifecycle *Lifecycle, timeout time.Duration) error {
	spec := backend.ContainerSpec{
		Name:    s.Spec.Name,
		Image:   s.Spec.Image,
		Tag:     s.Spec.Tag,
		Env:     s.Spec.EnvPairs(),
		Ports:   s.Spec.Ports,
		Volumes: s.mounts,
		Labels:  map[string]string{"cleanroom.service": s.Spec.Name},
	}

	id, err := s.backend.Create(ctx, spec)
	if err != nil {
		lifecycle.Set(s.Spec.Name, Unhealthy)
		return errlog.Wrap(errlog.Container, err, "creating service %q", s.Spec.Name)
	}
	s.ContainerID = id

	lifecycle.Set(s.Spec.Name, Starting)
	if err := s.backend.Start(ctx, id); err != nil {
		lifecycle.Set(s.Spec.Name, Unhealthy)
		return errlog.Wrap(errlog.Container, err, "starting service %q", s.Spec.Name)
	}

	deadline := clock.Now().Add(timeout)
	for {
		info, err := s.backend.Inspect(ctx, id)
		if err == nil && info.Healthy {
			lifecycle.Set(s.Spec.Name, Healthy)
			return nil
		}
		if clock.Now().After(deadline) {
			lifecycle.Set(s.Spec.Name, Unhealthy)
			return errlog.New(errlog.Timeout, "service %q did not become healthy within %s", s.Spec.Name, timeout)
		}
		select {
		case <-ctx.Done():
			lifecycle.Set(s.Spec.Name, Unhealthy)
			return errlog.Wrap(errlog.Timeout, ctx.Err(), "waiting for service %q to become healthy", s.Spec.Name)
		case <-time.After(healthPollInterval):
		}
	}
}

// Stop stops and removes the service's container. It tolerates a container
// that was never started (ContainerID empty) so teardown code can call Stop
// unconditionally during cleanup.
func (s *Service) Stop(ctx context.Context, lifecycle *Lifecycle, timeout time.Duration) error {
	if s.ContainerID == "" {
		lifecycle.Set(s.Spec.Name, Stopped)
		return nil
	}
	stopErr := s.backend.Stop(ctx, s.ContainerID, timeout)
	removeErr := s.backend.Remove(ctx, s.ContainerID)
	lifecycle.Set(s.Spec.Name, Stopped)
	if stopErr != nil {
		return errlog.Wrap(errlog.Container, stopErr, "stopping service %q", s.Spec.Name)
	}
	if removeErr != nil {
		return errlog.Wrap(errlog.Container, removeErr, "removing service %q", s.Spec.Name)
	}
	return nil
}
