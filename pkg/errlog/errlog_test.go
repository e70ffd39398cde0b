package errlog

import (
	"fmt"
	"strings"
	"testing"
)

func TestSetLevel(t *testing.T) {
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !DebugOutput {
		t.Errorf("expected DebugOutput to be true after setting debug level")
	}
	DebugOutput = false

	if err := SetLevel("bogus"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}

func TestErrorContextOrdering(t *testing.T) {
	base := New(Config, "duplicate service name %q", "db")
	base.With("validating scenario %q", "smoke").With("loading file %q", "scenario.toml")

	got := base.Error()
	wantOrder := []string{"loading file \"scenario.toml\"", "validating scenario \"smoke\"", "duplicate service name \"db\""}
	lastIdx := -1
	for _, w := range wantOrder {
		idx := strings.Index(got, w)
		if idx == -1 {
			t.Fatalf("expected message %q to contain %q", got, w)
		}
		if idx < lastIdx {
			t.Fatalf("expected context to be outermost-first, got %q", got)
		}
		lastIdx = idx
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	wrapped := Wrap(Container, cause, "starting service %q", "web")
	if !strings.Contains(wrapped.Error(), "boom") {
		t.Errorf("expected wrapped error to contain cause, got %q", wrapped.Error())
	}
	if KindOf(wrapped) != Container {
		t.Errorf("expected KindOf to be Container, got %v", KindOf(wrapped))
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	if KindOf(fmt.Errorf("plain error")) != Internal {
		t.Errorf("expected plain errors to be classified Internal")
	}
}

func TestExitCodes(t *testing.T) {
	cases := map[Kind]int{
		Validation: 1,
		Config:     2,
		Template:   2,
		Container:  3,
	}
	for kind, want := range cases {
		if got := kind.ExitCode(); got != want {
			t.Errorf("%v.ExitCode() = %d, want %d", kind, got, want)
		}
	}
}
