// Package executor runs a scenario end to end (spec.md section 5): check
// the fingerprint cache, start services in declaration order, execute
// steps sequentially, run the validator chain against the span snapshot,
// then tear every service down regardless of outcome.
package executor

import (
	"context"
	"regexp"
	"time"

	"github.com/cleanroom-dev/cleanroom/pkg/backend"
	"github.com/cleanroom-dev/cleanroom/pkg/clock"
	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
	"github.com/cleanroom-dev/cleanroom/pkg/features"
	"github.com/cleanroom-dev/cleanroom/pkg/fingerprint"
	"github.com/cleanroom-dev/cleanroom/pkg/mount"
	"github.com/cleanroom-dev/cleanroom/pkg/service"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
	"github.com/cleanroom-dev/cleanroom/pkg/validate"
)

// Outcome mirrors spec.md's ExecutionResult.outcome.
type Outcome string

const (
	Passed  Outcome = "passed"
	Failed  Outcome = "failed"
	Skipped Outcome = "skipped"
	Errored Outcome = "error"
)

// StepResult is one step's execution record.
type StepResult struct {
	Name            string
	Stdout          string
	Stderr          string
	ExitCode        int
	MatchedRegex    bool
	HasRegexCheck   bool
	Duration        time.Duration
	Err             error
}

// Result is a scenario's complete execution record (spec.md section 3,
// ExecutionResult).
type Result struct {
	ScenarioName string
	Outcome      Outcome
	Duration     time.Duration
	Steps        []StepResult
	ValidatorErrors []validate.Error
	Err          error
}

// Options configures one Run call.
type Options struct {
	Backend      backend.ContainerBackend
	MountPolicy  *mount.Policy
	Collector    *span.Collector
	Cache        *fingerprint.Cache
	IfChanged    bool
	FailFast     bool
}

// Run executes one scenario, always tearing down every service it started
// before returning, even when a step fails, a step panics, or the context
// is cancelled mid-run.
func Run(ctx context.Context, scenario *config.Scenario, opts Options) Result {
	start := clock.Now()
	result := Result{ScenarioName: scenario.Name}

	if opts.IfChanged && opts.Cache != nil {
		digest, err := fingerprint.Compute(scenario)
		if err == nil && opts.Cache.Unchanged(scenario.Name, digest) {
			result.Outcome = Skipped
			result.Duration = clock.Now().Sub(start)
			return result
		}
	}

	services, lifecycle, err := startServices(ctx, scenario, opts)
	defer teardown(services, lifecycle, scenario)

	if err != nil {
		result.Outcome = Errored
		result.Err = err
		result.Duration = clock.Now().Sub(start)
		recordCache(opts, scenario, result)
		return result
	}

	stepFailed := false
	for _, stepSpec := range scenario.Steps {
		stepResult := runStep(ctx, scenario, stepSpec, services, opts)
		result.Steps = append(result.Steps, stepResult)
		if stepResult.Err != nil || !stepOK(stepSpec, stepResult) {
			stepFailed = true
			if scenarioFailFast(scenario) {
				break
			}
		}
	}

	var spans []span.Data
	if opts.Collector != nil {
		spans = opts.Collector.Snapshot()
	}
	result.ValidatorErrors = validate.Run(scenario.Expect, spans)

	switch {
	case stepFailed || len(result.ValidatorErrors) > 0:
		result.Outcome = Failed
	default:
		result.Outcome = Passed
	}
	result.Duration = clock.Now().Sub(start)
	recordCache(opts, scenario, result)
	return result
}

func scenarioFailFast(scenario *config.Scenario) bool {
	// fail_fast is not a field the scenario schema exposes; by default
	// every step runs to completion and every failure is reported
	// together, matching spec.md's "recoverable in-scenario errors ...
	// do not abort the scenario" propagation policy. features.FailFastByDefault
	// flips this globally for callers who'd rather stop at the first
	// failing step (e.g. a fast local inner-loop).
	return features.Enabled(features.FailFastByDefault)
}

func startServices(ctx context.Context, scenario *config.Scenario, opts Options) ([]*service.Service, *service.Lifecycle, error) {
	names := make([]string, len(scenario.Services))
	for i, svc := range scenario.Services {
		names[i] = svc.Name
	}
	lifecycle := service.NewLifecycle(names)

	services := make([]*service.Service, 0, len(scenario.Services))
	for _, svcSpec := range scenario.Services {
		mounts := make([]mount.VolumeMount, 0, len(svcSpec.Volumes))
		for _, volSpec := range svcSpec.Volumes {
			vm, err := mount.New(volSpec, opts.MountPolicy)
			if err != nil {
				return services, lifecycle, errlog.Wrap(errlog.Security, err, "service %q volume", svcSpec.Name)
			}
			mounts = append(mounts, vm)
		}

		svc := service.New(svcSpec, opts.Backend, mounts)
		services = append(services, svc)

		timeout := scenario.Limits.StepTimeout
		if timeout == 0 {
			timeout = config.DefaultStepTimeout
		}
		if err := svc.Start(ctx, lifecycle, timeout); err != nil {
			return services, lifecycle, errlog.Wrap(errlog.Container, err, "starting service %q", svcSpec.Name)
		}
	}
	return services, lifecycle, nil
}

// teardown stops every started service in reverse start order, the mirror
// image of startup, so a service that depends on another (via a shared
// network or volume) is never torn down before its dependent.
func teardown(services []*service.Service, lifecycle *service.Lifecycle, scenario *config.Scenario) {
	if lifecycle == nil {
		return
	}
	ctx := context.Background()
	timeout := scenario.Limits.StepTimeout
	if timeout == 0 {
		timeout = config.DefaultStepTimeout
	}
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx, lifecycle, timeout); err != nil {
			errlog.LogError(err)
		}
	}
}

func runStep(ctx context.Context, scenario *config.Scenario, stepSpec config.StepSpec, services []*service.Service, opts Options) StepResult {
	result := StepResult{Name: stepSpec.Name}

	timeout := stepSpec.Timeout
	if timeout == 0 {
		timeout = scenario.Limits.StepTimeout
	}
	if timeout == 0 {
		timeout = config.DefaultStepTimeout
	}

	var attempt uint
	for {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		start := clock.Now()
		execResult, err := execStep(stepCtx, stepSpec, services, opts)
		cancel()
		result.Duration = clock.Now().Sub(start)

		if err != nil {
			result.Err = err
		} else {
			result.Stdout = execResult.Stdout
			result.Stderr = execResult.Stderr
			result.ExitCode = execResult.ExitCode
			if stepSpec.ExpectedStdoutRegex != "" {
				result.HasRegexCheck = true
				if re, reErr := regexp.Compile(stepSpec.ExpectedStdoutRegex); reErr == nil {
					result.MatchedRegex = re.MatchString(execResult.Stdout)
				}
			}
		}

		if err == nil && stepOK(stepSpec, result) {
			return result
		}
		if attempt >= stepSpec.Retries {
			return result
		}
		attempt++
	}
}

func execStep(ctx context.Context, stepSpec config.StepSpec, services []*service.Service, opts Options) (backend.ExecResult, error) {
	if stepSpec.Service == "" {
		return execOnHost(ctx, stepSpec)
	}
	for _, svc := range services {
		if svc.Spec.Name == stepSpec.Service {
			return opts.Backend.Exec(ctx, svc.ContainerID, stepSpec.Command)
		}
	}
	return backend.ExecResult{}, errlog.New(errlog.Config, "step %q references undefined service %q", stepSpec.Name, stepSpec.Service)
}

func stepOK(stepSpec config.StepSpec, result StepResult) bool {
	wantExit := 0
	if stepSpec.HasExpectedExitCode {
		wantExit = stepSpec.ExpectedExitCode
	}
	if result.ExitCode != wantExit {
		return false
	}
	if result.HasRegexCheck && !result.MatchedRegex {
		return false
	}
	return true
}

func recordCache(opts Options, scenario *config.Scenario, result Result) {
	if opts.Cache == nil {
		return
	}
	digest, err := fingerprint.Compute(scenario)
	if err != nil {
		return
	}
	outcome := "fail"
	switch result.Outcome {
	case Passed:
		outcome = "pass"
	case Errored:
		outcome = "error"
	}
	opts.Cache.Record(scenario.Name, fingerprint.Entry{
		Digest:    digest,
		Outcome:   outcome,
		Timestamp: clock.Now(),
	})
}
