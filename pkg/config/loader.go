/*
Copyright 2017 Heptio Inc.

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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// Renderer is the subset of pkg/template's Engine that config needs to
// perform step (c) of the Load contract ("render if needed") without
// importing the template package's full surface (and without template
// needing to know anything about config's types -- the dependency only
// ever points one way).
type Renderer interface {
	IsTemplate(text string) bool
	Render(text string, opts RenderOptions) (string, []string, error)
}

// RenderOptions carries the knobs the template engine needs that originate
// from the scenario file itself (seed/freeze_clock) or the caller (CLI vars).
type RenderOptions struct {
	SourcePath  string
	CLIVars     map[string]string
	Seed        int64
	HasSeed     bool
	FreezeClock time.Time
	HasFreeze   bool
	MaxBytes    int64
}

// Load performs the full Load contract from spec.md section 4.2: read,
// detect, render if needed, parse, validate. renderer may be nil, in which
// case no template detection or rendering happens and the file text is
// parsed as TOML as-is.
func Load(path string, renderer Renderer, cliVars map[string]string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errlog.Wrap(errlog.Io, err, "reading scenario file").With("loading %s", path)
	}

	text := string(raw)
	inputs := []string{absPath(path)}

	if renderer != nil && renderer.IsTemplate(text) {
		// Determinism config lives inside the template text itself
		// ([determinism] seed/freeze_clock), but the engine needs it
		// before it can parse the document. We do a best-effort,
		// lightweight pre-scan for that one block so render-time
		// fake_*/now_rfc3339 calls can already be frozen. Parse reads
		// the [determinism] block again from the rendered text; the
		// two values are not compared.
		opts := RenderOptions{SourcePath: path, CLIVars: cliVars}
		preScanDeterminism(text, &opts)
		rendered, included, err := renderer.Render(text, opts)
		if err != nil {
			return nil, err
		}
		text = rendered
		inputs = append(inputs, included...)
	}

	scenario, err := Parse([]byte(text), path)
	if err != nil {
		return nil, err
	}
	scenario.RawInputs = inputs

	if errs := scenario.Validate(); len(errs) > 0 {
		return nil, errs[0].With("validating scenario %q", scenario.Name)
	}
	scenario.Freeze()
	return scenario, nil
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// preScanDeterminism extracts `seed = N` / `freeze_clock = "..."` from a
// [determinism] block via the same line-oriented approach as tomlorder.go,
// so the template engine can freeze its RNG/clock before the rest of the
// document (which may itself be templated) can be parsed.
func preScanDeterminism(text string, opts *RenderOptions) {
	order := parseKeyOrder([]byte(text))
	_ = order // unused; scanDeterminismBlock below does the actual scan
	seed, hasSeed, freeze, hasFreeze := scanDeterminismBlock(text)
	opts.Seed, opts.HasSeed = seed, hasSeed
	opts.FreezeClock, opts.HasFreeze = freeze, hasFreeze
}

func scanDeterminismBlock(text string) (seed int64, hasSeed bool, freeze time.Time, hasFreeze bool) {
	lines := splitLines(text)
	inBlock := false
	for _, line := range lines {
		trimmed := trimSpace(line)
		if trimmed == "[determinism]" {
			inBlock = true
			continue
		}
		if inBlock && len(trimmed) > 0 && trimmed[0] == '[' {
			break
		}
		if !inBlock {
			continue
		}
		if v, ok := fieldValue(trimmed, "seed"); ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				seed, hasSeed = n, true
			}
		}
		if v, ok := fieldValue(trimmed, "freeze_clock"); ok {
			if t, err := time.Parse(time.RFC3339, trimQuotes(v)); err == nil {
				freeze, hasFreeze = t, true
			}
		}
	}
	return
}

func fieldValue(line, key string) (string, bool) {
	prefix := key
	idx := indexOf(line, "=")
	if idx < 0 {
		return "", false
	}
	name := trimSpace(line[:idx])
	if name != prefix {
		return "", false
	}
	return trimSpace(line[idx+1:]), true
}

// Parse decodes rendered TOML bytes into a Scenario, without rendering or
// validating. Load calls it on the rendered text.
func Parse(rendered []byte, sourcePath string) (*Scenario, error) {
	var generic map[string]interface{}
	if err := toml.Unmarshal(rendered, &generic); err != nil {
		return nil, errlog.Wrap(errlog.Config, err, "parsing TOML").With("loading %s", sourcePath)
	}
	for key := range generic {
		if !knownTopLevelKeys[key] {
			return nil, errlog.New(errlog.Config, "unknown top-level key %q", key).With("loading %s", sourcePath)
		}
	}

	var doc scenarioDoc
	if err := toml.Unmarshal(rendered, &doc); err != nil {
		return nil, errlog.Wrap(errlog.Config, err, "parsing TOML").With("loading %s", sourcePath)
	}

	order := parseKeyOrder(rendered)
	return buildScenario(&doc, order, sourcePath)
}

func buildScenario(doc *scenarioDoc, order *keyOrder, sourcePath string) (*Scenario, error) {
	s := &Scenario{
		SourcePath: sourcePath,
		Metadata:   map[string]string{},
	}

	for k, v := range doc.Meta {
		if k == "name" {
			s.Name = v
			continue
		}
		s.Metadata[k] = v
	}

	serviceNames := order.childOrder("services")
	for _, name := range serviceNames {
		sd, ok := doc.Services[name]
		if !ok {
			continue
		}
		svc := ServiceSpec{
			Name:     name,
			PluginID: sd.Plugin,
			Image:    sd.Image,
			Tag:      sd.Tag,
			Env:      sd.Env,
			Ports:    sd.Ports,
			Volumes:  sd.Volumes,
		}
		envOrder := order.childOrder(fmt.Sprintf("services.%s.env", name))
		if len(envOrder) == 0 {
			for k := range sd.Env {
				envOrder = append(envOrder, k)
			}
			sort.Strings(envOrder)
		}
		svc.EnvKeys = envOrder
		s.Services = append(s.Services, svc)
	}

	for _, sd := range doc.Steps {
		step := StepSpec{
			Name:                sd.Name,
			Service:             sd.Service,
			Command:             sd.Command,
			ExpectedStdoutRegex: sd.ExpectedStdoutRegex,
			Retries:             sd.Retries,
		}
		if sd.ExpectedExitCode != nil {
			step.ExpectedExitCode = *sd.ExpectedExitCode
			step.HasExpectedExitCode = true
		} else {
			step.HasExpectedExitCode = true // default 0, per spec.md section 3
		}
		if sd.Timeout != "" {
			d, err := time.ParseDuration(sd.Timeout)
			if err != nil {
				return nil, errlog.Wrap(errlog.Config, err, "parsing step %q timeout %q", sd.Name, sd.Timeout).With("loading %s", sourcePath)
			}
			step.Timeout = d
		}
		s.Steps = append(s.Steps, step)
	}

	s.Expect = buildExpectations(doc.Expect)
	s.Report = ReportConfig{JSON: doc.Report.JSON, JUnit: doc.Report.JUnit, Digest: doc.Report.Digest}

	if doc.Determinism != nil {
		det := &Determinism{}
		if doc.Determinism.Seed != nil {
			det.Seed, det.HasSeed = *doc.Determinism.Seed, true
		}
		if doc.Determinism.FreezeClock != "" {
			t, err := time.Parse(time.RFC3339, doc.Determinism.FreezeClock)
			if err != nil {
				return nil, errlog.Wrap(errlog.Config, err, "parsing determinism.freeze_clock").With("loading %s", sourcePath)
			}
			det.FreezeClock, det.HasFreezeClock = t, true
		}
		s.Determinism = det
	}

	s.Limits = Limits{
		TemplateBytes:   doc.Limits.TemplateBytes,
		StepTimeout:     time.Duration(doc.Limits.StepTimeoutMs) * time.Millisecond,
		ScenarioTimeout: 0,
	}
	if s.Limits.TemplateBytes == 0 {
		s.Limits.TemplateBytes = DefaultTemplateBytes
	}
	if doc.Limits.ScenarioTimeout != "" {
		d, err := time.ParseDuration(doc.Limits.ScenarioTimeout)
		if err != nil {
			return nil, errlog.Wrap(errlog.Config, err, "parsing limits.scenario_timeout").With("loading %s", sourcePath)
		}
		s.Limits.ScenarioTimeout = d
	}

	return s, nil
}

func buildExpectations(doc expectDoc) Expectations {
	var e Expectations

	if doc.Counts != nil {
		ce := &CountsExpectation{}
		if doc.Counts.SpansTotal != nil {
			ce.SpansTotal = toCountConstraint(*doc.Counts.SpansTotal)
		}
		for _, c := range doc.Counts.ByName {
			ce.ByName = append(ce.ByName, *toCountConstraint(c))
		}
		e.Counts = ce
	}

	if doc.Order != nil {
		e.Order = &OrderExpectation{
			MustPrecede: toNamePairs(doc.Order.MustPrecede),
			MustFollow:  toNamePairs(doc.Order.MustFollow),
		}
	}

	if doc.Status != nil {
		e.Status = &StatusExpectation{All: doc.Status.All, ByName: doc.Status.ByName}
	}

	if doc.Graph != nil {
		e.Graph = &GraphExpectation{
			MustInclude: toNamePairs(doc.Graph.MustInclude),
			Acyclic:     doc.Graph.Acyclic,
		}
	}

	for _, w := range doc.Window {
		e.Window = append(e.Window, WindowExpectation{Outer: w.Outer, Contains: w.Contains})
	}

	if doc.Hermeticity != nil {
		he := &HermeticityExpectation{NoExternalServices: doc.Hermeticity.NoExternalServices}
		if doc.Hermeticity.ResourceAttrs != nil {
			he.ResourceAttrs = &ResourceAttrsExpectation{MustMatch: doc.Hermeticity.ResourceAttrs.MustMatch}
		}
		if doc.Hermeticity.SpanAttrs != nil {
			he.SpanAttrs = &SpanAttrsExpectation{ForbidKeys: doc.Hermeticity.SpanAttrs.ForbidKeys}
		}
		e.Hermeticity = he
	}

	for _, sa := range doc.Spans {
		e.Spans = append(e.Spans, SpanAssertion{
			Name:          sa.Name,
			Attributes:    sa.Attributes,
			DurationMinMs: sa.DurationMinMs,
			DurationMaxMs: sa.DurationMaxMs,
			Required:      sa.Required,
		})
	}

	return e
}

func toCountConstraint(c countConstraintDoc) *CountConstraint {
	cc := &CountConstraint{Pattern: c.Pattern}
	switch {
	case c.Eq != nil:
		cc.Op, cc.N = CountEq, *c.Eq
	case c.Gte != nil:
		cc.Op, cc.N = CountGte, *c.Gte
	case c.Lte != nil:
		cc.Op, cc.N = CountLte, *c.Lte
	}
	return cc
}

func toNamePairs(raw [][]string) []NamePair {
	var pairs []NamePair
	for _, p := range raw {
		if len(p) == 2 {
			pairs = append(pairs, NamePair{A: p[0], B: p[1]})
		}
	}
	return pairs
}

// small string helpers kept local to avoid pulling in strings for two uses
// in a file that's otherwise about TOML structure.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
