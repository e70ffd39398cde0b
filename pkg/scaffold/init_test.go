package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesScenarioAndReadme(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Options{Dir: dir, Name: "checkout-flow"}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	scenarioPath := filepath.Join(dir, "checkout-flow.toml")
	data, err := os.ReadFile(scenarioPath)
	if err != nil {
		t.Fatalf("reading scaffolded scenario: %v", err)
	}
	if !strings.Contains(string(data), `name = "checkout-flow"`) {
		t.Errorf("expected scenario name in output, got:\n%s", data)
	}
	if !strings.Contains(string(data), "alpine:latest") {
		t.Errorf("expected default image in output, got:\n%s", data)
	}

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		t.Fatalf("reading README: %v", err)
	}
	if !strings.Contains(string(readme), "cleanroom run checkout-flow.toml") {
		t.Errorf("expected run instructions in README, got:\n%s", readme)
	}

	if info, err := os.Stat(filepath.Join(dir, ".cleanroom")); err != nil || !info.IsDir() {
		t.Error("expected .cleanroom cache directory to be created")
	}
}

func TestInitUsesCustomImage(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Options{Dir: dir, Name: "s", Image: "myregistry/app:v2"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "s.toml"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "myregistry/app:v2") {
		t.Errorf("expected custom image in output, got:\n%s", data)
	}
}
