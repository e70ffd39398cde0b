/*
Copyright 2018 Heptio Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package validate is the OTEL validation core: a fixed chain of
// independent validators that check a scenario's captured span set against
// its configured expectations.
package validate

import (
	"path/filepath"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

// Error is one structured validator failure. Reporters group these by
// Validator, then by Scenario, following the human reporter's grouping
// rule.
type Error struct {
	Validator    string
	Expectation  string
	SpanIDs      []string
	SpanNames    []string
	Message      string
}

// Validator checks one expectation kind against a span snapshot.
type Validator interface {
	// Name is the validator's identity, e.g. "count", "order".
	Name() string
	// Validate returns every violation found; an empty slice means the
	// expectation is satisfied. Validators never short-circuit each
	// other and never mutate spans.
	Validate(expect config.Expectations, spans []span.Data) []Error
}

// chain is the fixed order from spec.md: Count -> Span -> Graph -> Window
// -> Order -> Status -> Hermeticity. "Span" here is the per-span
// attribute/duration assertion validator (expect.spans).
var chain = []Validator{
	countValidator{},
	spanAssertionValidator{},
	graphValidator{},
	windowValidator{},
	orderValidator{},
	statusValidator{},
	hermeticityValidator{},
}

// Run executes every validator in the fixed chain against spans and
// concatenates their errors. The scenario outcome is "passed" iff the
// returned slice is empty.
func Run(expect config.Expectations, spans []span.Data) []Error {
	var errs []Error
	for _, v := range chain {
		errs = append(errs, v.Validate(expect, spans)...)
	}
	return errs
}

// matchName reports whether name matches the glob pattern, e.g. "err_*".
// An empty pattern matches everything, mirroring "missing pattern means
// all spans" for count constraints and the analogous default elsewhere.
func matchName(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

// matching returns every span whose Name matches pattern, in snapshot
// (emission) order.
func matching(pattern string, spans []span.Data) []span.Data {
	var out []span.Data
	for _, d := range spans {
		if matchName(pattern, d.Name) {
			out = append(out, d)
		}
	}
	return out
}
