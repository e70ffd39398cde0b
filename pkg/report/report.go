// Package report turns a run's []executor.Result into one of the output
// formats spec.md section 6 names: human, json, junit, or digest.
package report

import (
	"github.com/cleanroom-dev/cleanroom/pkg/executor"
)

// Format selects which emitter Write uses.
type Format string

const (
	Human  Format = "human"
	JSON   Format = "json"
	JUnit  Format = "junit"
	Digest Format = "digest"
)

// Summary is the aggregate pass/fail count across a []executor.Result,
// the number the human reporter headlines and every CLI subcommand's exit
// code ultimately derives from.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Errored int
	Skipped int
}

// Summarize tallies outcomes across results.
func Summarize(results []executor.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case executor.Passed:
			s.Passed++
		case executor.Failed:
			s.Failed++
		case executor.Errored:
			s.Errored++
		case executor.Skipped:
			s.Skipped++
		}
	}
	return s
}

// AllPassed reports whether every scenario either passed or was skipped.
func (s Summary) AllPassed() bool {
	return s.Failed == 0 && s.Errored == 0
}
