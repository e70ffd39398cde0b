package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalScenario = `
[meta]
name = "checkout-flow"
owner = "payments"

[services.api]
image = "example.com/checkout-api"
tag = "v1"
env = { LOG_LEVEL = "debug", PORT = "8080" }

[services.db]
image = "postgres"
tag = "15"

[[steps]]
name = "warm-up"
service = "api"
command = ["curl", "-f", "http://localhost:8080/health"]
expected_exit_code = 0

[[steps]]
name = "place-order"
service = "api"
command = ["curl", "-X", "POST", "http://localhost:8080/orders"]

[expect.counts]
spans_total = { gte = 1 }

[expect.status]
all = "ok"

[report]
json = "out.json"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadMinimalScenario(t *testing.T) {
	path := writeTemp(t, minimalScenario)
	scenario, err := Load(path, nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if scenario.Name != "checkout-flow" {
		t.Errorf("Name = %q, want checkout-flow", scenario.Name)
	}
	if scenario.Metadata["owner"] != "payments" {
		t.Errorf("Metadata[owner] = %q, want payments", scenario.Metadata["owner"])
	}
	if len(scenario.Services) != 2 {
		t.Fatalf("len(Services) = %d, want 2", len(scenario.Services))
	}
	if scenario.Services[0].Name != "api" {
		t.Errorf("Services[0].Name = %q, want api (source order)", scenario.Services[0].Name)
	}

	api := scenario.ServiceByName("api")
	if api == nil {
		t.Fatal("ServiceByName(api) = nil")
	}
	pairs := api.EnvPairs()
	if len(pairs) != 2 || pairs[0].Key != "LOG_LEVEL" || pairs[1].Key != "PORT" {
		t.Errorf("EnvPairs() = %+v, want LOG_LEVEL then PORT in source order", pairs)
	}

	if len(scenario.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(scenario.Steps))
	}
	if !scenario.Steps[0].HasExpectedExitCode || scenario.Steps[0].ExpectedExitCode != 0 {
		t.Errorf("Steps[0] expected exit code not recorded as 0")
	}

	if scenario.Expect.Counts == nil || scenario.Expect.Counts.SpansTotal == nil {
		t.Fatal("Expect.Counts.SpansTotal not populated")
	}
	if scenario.Expect.Counts.SpansTotal.Op != CountGte || scenario.Expect.Counts.SpansTotal.N != 1 {
		t.Errorf("SpansTotal = %+v, want gte 1", scenario.Expect.Counts.SpansTotal)
	}

	if !scenario.Frozen() {
		t.Error("scenario should be frozen after a successful Load")
	}
}

func TestLoadUnknownTopLevelKey(t *testing.T) {
	path := writeTemp(t, `
[meta]
name = "x"

[bogus]
foo = "bar"
`)
	_, err := Load(path, nil, nil)
	if err == nil {
		t.Fatal("expected error for unknown top-level key")
	}
}

func TestLoadWithoutRendererTakesTextLiterally(t *testing.T) {
	// With no Renderer wired in, Load never calls IsTemplate/Render: a
	// template marker is just a string value like any other.
	path := writeTemp(t, `
[meta]
name = "{{ fake_name() }}"
`)
	scenario, err := Load(path, nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if scenario.Name != "{{ fake_name() }}" {
		t.Errorf("Name = %q, want the literal marker text", scenario.Name)
	}
}

func TestLoadValidationFailures(t *testing.T) {
	path := writeTemp(t, `
[meta]
name = "broken"

[services.api]
image = "x"

[[steps]]
name = "s1"
service = "does-not-exist"
command = ["true"]
`)
	_, err := Load(path, nil, nil)
	if err == nil {
		t.Fatal("expected validation error for undefined service reference")
	}
}

func TestPreScanDeterminism(t *testing.T) {
	text := `
[determinism]
seed = 42
freeze_clock = "2024-01-01T00:00:00Z"
`
	var opts RenderOptions
	preScanDeterminism(text, &opts)
	if !opts.HasSeed || opts.Seed != 42 {
		t.Errorf("seed = %d (has=%v), want 42", opts.Seed, opts.HasSeed)
	}
	if !opts.HasFreeze {
		t.Error("expected freeze_clock to be parsed")
	}
}
