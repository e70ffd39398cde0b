package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cleanroom-dev/cleanroom/pkg/executor"
	"github.com/cleanroom-dev/cleanroom/pkg/validate"
)

func sampleResults() []executor.Result {
	return []executor.Result{
		{
			ScenarioName: "hello",
			Outcome:      executor.Passed,
			Duration:     10 * time.Millisecond,
			Steps: []executor.StepResult{
				{Name: "echo-hello", ExitCode: 0, HasRegexCheck: true, MatchedRegex: true, Duration: 5 * time.Millisecond},
			},
		},
		{
			ScenarioName: "broken",
			Outcome:      executor.Failed,
			Duration:     20 * time.Millisecond,
			ValidatorErrors: []validate.Error{
				{Validator: "order", Expectation: "order.must_precede[a,b]", Message: "a does not precede b"},
			},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults())
	if s.Total != 2 || s.Passed != 1 || s.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.AllPassed() {
		t.Error("AllPassed should be false when a scenario failed")
	}
}

func TestWriteHumanGroupsByValidator(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHuman(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteHuman: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "1/2 scenarios passed") {
		t.Errorf("missing summary line: %s", out)
	}
	if !strings.Contains(out, "[order]") {
		t.Errorf("missing validator grouping: %s", out)
	}
}

func TestWriteJSONRoundTripsOutcome(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"outcome": "passed"`) {
		t.Errorf("expected outcome field in JSON: %s", buf.String())
	}
}

func TestWriteJUnitProducesValidXML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJUnit(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteJUnit: %v", err)
	}
	if !strings.Contains(buf.String(), "<testsuites>") {
		t.Errorf("expected testsuites root element: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `name="broken"`) {
		t.Errorf("expected scenario name in suite: %s", buf.String())
	}
}

func TestWriteDigestStableForIdenticalInput(t *testing.T) {
	var a, b bytes.Buffer
	if err := WriteDigest(&a, sampleResults()); err != nil {
		t.Fatalf("WriteDigest: %v", err)
	}
	if err := WriteDigest(&b, sampleResults()); err != nil {
		t.Fatalf("WriteDigest: %v", err)
	}
	if a.String() != b.String() {
		t.Errorf("digest not stable: %s != %s", a.String(), b.String())
	}
}

func TestWriteDigestOrderIndependent(t *testing.T) {
	results := sampleResults()
	reversed := []executor.Result{results[1], results[0]}

	var a, b bytes.Buffer
	WriteDigest(&a, results)
	WriteDigest(&b, reversed)

	if a.String() != b.String() {
		t.Errorf("digest should be stable across scenario order, got %s vs %s", a.String(), b.String())
	}
}

func TestWriteDigestChangesWithValidatorKind(t *testing.T) {
	results := sampleResults()
	var a bytes.Buffer
	WriteDigest(&a, results)

	results[1].ValidatorErrors[0].Validator = "window"
	var b bytes.Buffer
	WriteDigest(&b, results)

	if a.String() == b.String() {
		t.Error("expected digest to change when the validator kind changes")
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Format("bogus"), sampleResults()); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}
