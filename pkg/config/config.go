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

// Package config is Cleanroom's typed scenario tree (spec.md section 3):
// metadata, services, steps, expectations, and reports, plus the
// structural invariant checks that run once right after parsing.
package config

import "time"

// ScenarioSet is a collection of scenarios loaded (and validated) together,
// typically one file per Scenario, each produced by Load.
type ScenarioSet struct {
	Scenarios []*Scenario
}

// ByName returns the scenario with the given name, or nil.
func (s *ScenarioSet) ByName(name string) *Scenario {
	for _, sc := range s.Scenarios {
		if sc.Name == name {
			return sc
		}
	}
	return nil
}

// Scenario is the top-level testable unit (spec.md section 3).
type Scenario struct {
	Name     string
	Metadata map[string]string

	Services []ServiceSpec
	Steps    []StepSpec

	Expect Expectations
	Report ReportConfig

	Determinism *Determinism
	Limits      Limits

	// SourcePath is the file this scenario was loaded from. Not part of the
	// canonical digest (spec.md section 4.4 hashes file contents, not paths).
	SourcePath string
	// RawInputs are the absolute paths of every local file that contributed
	// to this scenario's rendered text (the source file plus any templates
	// it `include`d), used by the fingerprinter.
	RawInputs []string

	// frozen is set by Freeze, which Load calls once Validate finds no
	// violations. Nothing in this package checks it; callers treat a
	// Scenario as read-only from this point on.
	frozen bool
}

// Freeze marks the scenario frozen, per the documented lifecycle: "created
// at parse time; frozen after C2 validation; consumed by C10; never
// mutated thereafter."
func (s *Scenario) Freeze() { s.frozen = true }

// Frozen reports whether Freeze has been called for this scenario.
func (s *Scenario) Frozen() bool { return s.frozen }

// ServiceByName returns the service spec with the given name, or nil.
func (s *Scenario) ServiceByName(name string) *ServiceSpec {
	for i := range s.Services {
		if s.Services[i].Name == name {
			return &s.Services[i]
		}
	}
	return nil
}

// ServiceSpec declares one containerized dependency (spec.md section 3).
type ServiceSpec struct {
	Name     string
	PluginID string
	Image    string
	Tag      string
	// EnvKeys preserves TOML source order; Env holds the values.
	EnvKeys []string
	Env     map[string]string
	Ports   []int
	Volumes []VolumeSpec
}

// EnvPairs returns the service's environment variables in deterministic
// (source) order, the shape C6/C7 want when building a container spec.
func (s *ServiceSpec) EnvPairs() []EnvPair {
	pairs := make([]EnvPair, 0, len(s.EnvKeys))
	for _, k := range s.EnvKeys {
		pairs = append(pairs, EnvPair{Key: k, Value: s.Env[k]})
	}
	return pairs
}

// EnvPair is one ordered environment variable assignment.
type EnvPair struct {
	Key   string
	Value string
}

// VolumeSpec is the config-level (unvalidated, uncanonicalized) declaration
// of a bind mount. pkg/mount.VolumeMount is the validated runtime form C5
// produces from one of these.
type VolumeSpec struct {
	HostPath      string `toml:"host_path"`
	ContainerPath string `toml:"container_path"`
	ReadOnly      bool   `toml:"read_only"`
}

// StepSpec is one ordered command execution (spec.md section 3).
type StepSpec struct {
	Name                string
	Service             string // empty means "run on the host"
	Command             []string
	ExpectedExitCode    int
	HasExpectedExitCode bool
	ExpectedStdoutRegex string
	Timeout             time.Duration
	Retries             uint
}

// ReportConfig is where output reports should be written (spec.md section 6).
type ReportConfig struct {
	JSON   string
	JUnit  string
	Digest string
}

// Determinism configures a scenario's seed and/or frozen clock (spec.md
// section 4.3). Either field may be zero-valued/absent; callers check
// HasSeed/HasFreezeClock.
type Determinism struct {
	Seed          int64
	HasSeed       bool
	FreezeClock   time.Time
	HasFreezeClock bool
}

// Limits bounds render size and per-scenario timeouts (spec.md section 3).
type Limits struct {
	TemplateBytes  int64
	StepTimeout    time.Duration
	ScenarioTimeout time.Duration
}

// DefaultTemplateBytes is the default render-size ceiling (spec.md section 4.3).
const DefaultTemplateBytes = 1 << 20 // 1 MiB

// DefaultStepTimeout is used when a step declares no timeout and the
// scenario sets no limits.step_timeout_ms.
const DefaultStepTimeout = 30 * time.Second
