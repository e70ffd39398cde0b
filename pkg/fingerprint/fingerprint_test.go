package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestComputeStableAcrossKeyOrderAndWhitespace(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", `
[meta]
name = "x"
owner = "y"
`)
	b := writeFile(t, dir, "b.toml", `
[meta]
owner   =   "y"
name = "x"
`)

	d1, err := Compute(&config.Scenario{RawInputs: []string{a}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	d2, err := Compute(&config.Scenario{RawInputs: []string{b}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if d1 != d2 {
		t.Errorf("digests differ for semantically identical TOML: %s vs %s", d1, d2)
	}
}

func TestComputeChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", `[meta]
name = "x"
`)
	d1, err := Compute(&config.Scenario{RawInputs: []string{a}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	writeFile(t, dir, "a.toml", `[meta]
name = "y"
`)
	d2, err := Compute(&config.Scenario{RawInputs: []string{a}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if d1 == d2 {
		t.Error("digest did not change after content changed")
	}
}

func TestComputeHandlesNonTOMLFragment(t *testing.T) {
	dir := t.TempDir()
	frag := writeFile(t, dir, "frag.toml", `{% if x %}not valid toml on its own{% endif %}`)
	if _, err := Compute(&config.Scenario{RawInputs: []string{frag}}); err != nil {
		t.Fatalf("Compute should fall back to raw-byte hashing for non-TOML includes: %v", err)
	}
}

func TestComputeMissingFile(t *testing.T) {
	_, err := Compute(&config.Scenario{RawInputs: []string{"/no/such/file.toml"}})
	if err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}
