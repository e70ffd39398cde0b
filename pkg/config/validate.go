package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// Validate runs every structural invariant from spec.md section 4.2 and
// returns the full set of violations found, rather than stopping at the
// first one -- a scenario author fixing a typo'd service name wants to see
// every other problem in the same file, not one at a time.
func (s *Scenario) Validate() []*errlog.Error {
	var errs []*errlog.Error

	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errlog.New(errlog.Config, "meta.name must not be empty"))
	}

	seen := map[string]bool{}
	for _, svc := range s.Services {
		if strings.TrimSpace(svc.Name) == "" {
			errs = append(errs, errlog.New(errlog.Config, "a service has an empty name"))
			continue
		}
		if seen[svc.Name] {
			errs = append(errs, errlog.New(errlog.Config, "duplicate service name %q", svc.Name))
		}
		seen[svc.Name] = true

		if svc.Image == "" {
			errs = append(errs, errlog.New(errlog.Config, "service %q has no image", svc.Name))
		}

		mountPoints := map[string]bool{}
		for _, v := range svc.Volumes {
			if !filepath.IsAbs(v.HostPath) {
				errs = append(errs, errlog.New(errlog.Config, "service %q volume host_path %q must be absolute", svc.Name, v.HostPath))
			}
			if !filepath.IsAbs(v.ContainerPath) {
				errs = append(errs, errlog.New(errlog.Config, "service %q volume container_path %q must be absolute", svc.Name, v.ContainerPath))
			}
			clean := filepath.Clean(v.ContainerPath)
			if mountPoints[clean] {
				errs = append(errs, errlog.New(errlog.Config, "service %q has two volumes mounted at %q", svc.Name, clean))
			}
			mountPoints[clean] = true
		}
	}

	stepNames := map[string]bool{}
	for _, step := range s.Steps {
		if step.Name != "" {
			if stepNames[step.Name] {
				errs = append(errs, errlog.New(errlog.Config, "duplicate step name %q", step.Name))
			}
			stepNames[step.Name] = true
		}
		if step.Service != "" && s.ServiceByName(step.Service) == nil {
			errs = append(errs, errlog.New(errlog.Config, "step %q references undefined service %q", step.Name, step.Service))
		}
		if len(step.Command) == 0 {
			errs = append(errs, errlog.New(errlog.Config, "step %q has an empty command", step.Name))
		}
	}

	errs = append(errs, s.validateExpectations(seen)...)

	return errs
}

// validateExpectations checks expectation blocks for malformed entries:
// window entries without an outer pattern or contains list, and negative
// counts. status.by_name keys are span-name patterns that refine
// status.all, so they are not checked against the declared services.
func (s *Scenario) validateExpectations(serviceNames map[string]bool) []*errlog.Error {
	var errs []*errlog.Error
	e := s.Expect

	if e.Window != nil {
		for _, w := range e.Window {
			if w.Outer == "" {
				errs = append(errs, errlog.New(errlog.Config, "expect.window entry has no 'outer' pattern"))
			}
			if len(w.Contains) == 0 {
				errs = append(errs, errlog.New(errlog.Config, "expect.window entry for %q has an empty 'contains' list", w.Outer))
			}
		}
	}

	if e.Counts != nil {
		for _, c := range e.Counts.ByName {
			if c.N < 0 {
				errs = append(errs, errlog.New(errlog.Config, "expect.counts.by_name pattern %q has a negative count", c.Pattern))
			}
		}
	}

	return errs
}

// String renders a short human identifier for a scenario, used in error
// context and dev-loop log lines.
func (s *Scenario) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("<%s>", s.SourcePath)
}
