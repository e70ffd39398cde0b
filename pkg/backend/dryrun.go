package backend

import (
	"context"
	"fmt"
	"io"
	"time"
)

// DryRunBackend implements ContainerBackend by logging the operations a
// real backend would perform instead of performing them, the same idea as
// the teacher's pkg/image DryRunClient applied to container lifecycle
// instead of image push/pull. `cleanroom dry-run` uses this so a scenario's
// full service/step plan can be printed without a container runtime
// installed or any side effect on the host.
type DryRunBackend struct {
	Out io.Writer

	nextID int
}

func (b *DryRunBackend) logf(format string, args ...interface{}) {
	fmt.Fprintf(b.Out, format+"\n", args...)
}

// Create assigns a synthetic ID so the rest of the executor's bookkeeping
// (which keys everything off an opaque string ID) works unmodified.
func (b *DryRunBackend) Create(ctx context.Context, spec ContainerSpec) (string, error) {
	b.nextID++
	id := fmt.Sprintf("dryrun-%s-%d", spec.Name, b.nextID)
	b.logf("would create %s from %s", spec.Name, spec.Ref())
	return id, nil
}

func (b *DryRunBackend) Start(ctx context.Context, id string) error {
	b.logf("would start %s", id)
	return nil
}

func (b *DryRunBackend) Exec(ctx context.Context, id string, command []string) (ExecResult, error) {
	b.logf("would exec in %s: %v", id, command)
	return ExecResult{ExitCode: 0}, nil
}

func (b *DryRunBackend) Logs(ctx context.Context, id string) (string, error) {
	return "", nil
}

func (b *DryRunBackend) Inspect(ctx context.Context, id string) (Info, error) {
	return Info{ID: id, Running: true, Healthy: true}, nil
}

func (b *DryRunBackend) Stop(ctx context.Context, id string, timeout time.Duration) error {
	b.logf("would stop %s", id)
	return nil
}

func (b *DryRunBackend) Remove(ctx context.Context, id string) error {
	b.logf("would remove %s", id)
	return nil
}
