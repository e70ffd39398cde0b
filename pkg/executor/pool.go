package executor

import (
	"context"
	"sync"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
)

// RunAll runs every scenario in set, up to concurrency at a time. Within
// one scenario, step execution stays strictly sequential (Run enforces
// that); only different scenarios run in parallel with one another. A
// concurrency of 0 or 1 runs scenarios one at a time.
//
// newOptions is called once per scenario rather than sharing one Options
// across goroutines, since each scenario run wants its own span.Collector
// (spans from concurrent scenarios must never mix) but can share a single
// backend.ContainerBackend and fingerprint.Cache safely.
func RunAll(ctx context.Context, set *config.ScenarioSet, concurrency int, newOptions func(*config.Scenario) Options) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(set.Scenarios))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, scenario := range set.Scenarios {
		i, scenario := i, scenario
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = Run(ctx, scenario, newOptions(scenario))
		}()
	}
	wg.Wait()
	return results
}
