package executor

import (
	"context"
	"testing"
	"time"

	"github.com/cleanroom-dev/cleanroom/pkg/backend"
	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/mount"
)

// fakeBackend is an immediately-healthy in-memory ContainerBackend, mirroring
// pkg/service's own test fake, extended with a scriptable Exec so steps can
// be driven through success/failure/retry paths without a real runtime.
type fakeBackend struct {
	execFn func(id string, command []string) (backend.ExecResult, error)
}

func (f *fakeBackend) Create(ctx context.Context, spec backend.ContainerSpec) (string, error) {
	return "container-" + spec.Name, nil
}
func (f *fakeBackend) Start(ctx context.Context, id string) error { return nil }
func (f *fakeBackend) Exec(ctx context.Context, id string, command []string) (backend.ExecResult, error) {
	if f.execFn != nil {
		return f.execFn(id, command)
	}
	return backend.ExecResult{ExitCode: 0}, nil
}
func (f *fakeBackend) Logs(ctx context.Context, id string) (string, error) { return "", nil }
func (f *fakeBackend) Inspect(ctx context.Context, id string) (backend.Info, error) {
	return backend.Info{ID: id, Running: true, Healthy: true}, nil
}
func (f *fakeBackend) Stop(ctx context.Context, id string, timeout time.Duration) error { return nil }
func (f *fakeBackend) Remove(ctx context.Context, id string) error                      { return nil }

func baseScenario() *config.Scenario {
	return &config.Scenario{
		Name: "hello",
		Services: []config.ServiceSpec{
			{Name: "s", Image: "alpine", Tag: "latest"},
		},
		Steps: []config.StepSpec{
			{Name: "echo-hello", Service: "s", Command: []string{"echo", "hi"}, ExpectedStdoutRegex: "^hi$"},
		},
	}
}

func TestRunPassesOnExpectedExitAndRegex(t *testing.T) {
	fb := &fakeBackend{execFn: func(id string, command []string) (backend.ExecResult, error) {
		return backend.ExecResult{Stdout: "hi\n", ExitCode: 0}, nil
	}}
	scenario := baseScenario()
	result := Run(context.Background(), scenario, Options{Backend: fb, MountPolicy: mount.PermissivePolicy()})

	if result.Outcome != Passed {
		t.Fatalf("Outcome = %v, want Passed (err=%v, steps=%+v)", result.Outcome, result.Err, result.Steps)
	}
	if len(result.Steps) != 1 || !result.Steps[0].MatchedRegex {
		t.Fatalf("expected step to match regex, got %+v", result.Steps)
	}
}

func TestRunFailsOnUnexpectedExitCode(t *testing.T) {
	fb := &fakeBackend{execFn: func(id string, command []string) (backend.ExecResult, error) {
		return backend.ExecResult{Stdout: "boom", ExitCode: 1}, nil
	}}
	scenario := baseScenario()
	result := Run(context.Background(), scenario, Options{Backend: fb, MountPolicy: mount.PermissivePolicy()})

	if result.Outcome != Failed {
		t.Fatalf("Outcome = %v, want Failed", result.Outcome)
	}
}

func TestRunRetriesBeforeFailing(t *testing.T) {
	calls := 0
	fb := &fakeBackend{execFn: func(id string, command []string) (backend.ExecResult, error) {
		calls++
		if calls < 3 {
			return backend.ExecResult{ExitCode: 1}, nil
		}
		return backend.ExecResult{Stdout: "hi\n", ExitCode: 0}, nil
	}}
	scenario := baseScenario()
	scenario.Steps[0].Retries = 5
	result := Run(context.Background(), scenario, Options{Backend: fb, MountPolicy: mount.PermissivePolicy()})

	if result.Outcome != Passed {
		t.Fatalf("Outcome = %v, want Passed after retries (calls=%d)", result.Outcome, calls)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRunGivesUpAfterRetriesExhausted(t *testing.T) {
	fb := &fakeBackend{execFn: func(id string, command []string) (backend.ExecResult, error) {
		return backend.ExecResult{ExitCode: 1}, nil
	}}
	scenario := baseScenario()
	scenario.Steps[0].Retries = 2
	result := Run(context.Background(), scenario, Options{Backend: fb, MountPolicy: mount.PermissivePolicy()})

	if result.Outcome != Failed {
		t.Fatalf("Outcome = %v, want Failed", result.Outcome)
	}
}

func TestRunEmptyScenarioPassesZeroSpans(t *testing.T) {
	eq0 := int64(0)
	scenario := &config.Scenario{
		Name: "empty",
		Expect: config.Expectations{
			Counts: &config.CountsExpectation{
				SpansTotal: &config.CountConstraint{Op: config.CountEq, N: eq0},
			},
		},
	}
	result := Run(context.Background(), scenario, Options{Backend: &fakeBackend{}, MountPolicy: mount.PermissivePolicy()})
	if result.Outcome != Passed {
		t.Fatalf("Outcome = %v, want Passed, validator errors: %v", result.Outcome, result.ValidatorErrors)
	}
}

func TestRunUndefinedStepServiceErrors(t *testing.T) {
	scenario := baseScenario()
	scenario.Steps[0].Service = "does-not-exist"
	result := Run(context.Background(), scenario, Options{Backend: &fakeBackend{}, MountPolicy: mount.PermissivePolicy()})

	if result.Outcome != Failed {
		t.Fatalf("Outcome = %v, want Failed", result.Outcome)
	}
	if result.Steps[0].Err == nil {
		t.Fatal("expected step error for undefined service reference")
	}
}

func TestRunAllBoundsConcurrency(t *testing.T) {
	set := &config.ScenarioSet{}
	for i := 0; i < 5; i++ {
		s := baseScenario()
		s.Name = s.Name + string(rune('a'+i))
		set.Scenarios = append(set.Scenarios, s)
	}

	fb := &fakeBackend{execFn: func(id string, command []string) (backend.ExecResult, error) {
		return backend.ExecResult{Stdout: "hi\n", ExitCode: 0}, nil
	}}

	results := RunAll(context.Background(), set, 2, func(s *config.Scenario) Options {
		return Options{Backend: fb, MountPolicy: mount.PermissivePolicy()}
	})

	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Outcome != Passed {
			t.Errorf("scenario %s outcome = %v, want Passed", r.ScenarioName, r.Outcome)
		}
	}
}
