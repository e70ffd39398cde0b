package report

import (
	"encoding/json"
	"io"

	"github.com/cleanroom-dev/cleanroom/pkg/executor"
	"github.com/cleanroom-dev/cleanroom/pkg/validate"
)

// jsonStep and jsonResult give the wire format explicit field names rather
// than exporting executor.Result/StepResult's Go-internal shape directly
// (executor.StepResult.Err is an `error`, which encoding/json can't marshal
// meaningfully on its own).
type jsonStep struct {
	Name          string `json:"name"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	ExitCode      int    `json:"exit_code"`
	MatchedRegex  bool   `json:"matched_regex,omitempty"`
	HasRegexCheck bool   `json:"has_regex_check,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
	Error         string `json:"error,omitempty"`
}

type jsonValidatorError struct {
	Validator   string   `json:"validator"`
	Expectation string   `json:"expectation"`
	SpanIDs     []string `json:"span_ids,omitempty"`
	SpanNames   []string `json:"span_names,omitempty"`
	Message     string   `json:"message"`
}

type jsonResult struct {
	Scenario        string               `json:"scenario"`
	Outcome         string               `json:"outcome"`
	DurationMs      int64                `json:"duration_ms"`
	Error           string               `json:"error,omitempty"`
	Steps           []jsonStep           `json:"steps"`
	ValidatorErrors []jsonValidatorError `json:"validator_errors,omitempty"`
}

type jsonReport struct {
	Summary Summary      `json:"summary"`
	Results []jsonResult `json:"results"`
}

// WriteJSON writes results as a single JSON document to w.
func WriteJSON(w io.Writer, results []executor.Result) error {
	doc := jsonReport{Summary: Summarize(results)}
	for _, r := range results {
		doc.Results = append(doc.Results, toJSONResult(r))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func toJSONResult(r executor.Result) jsonResult {
	jr := jsonResult{
		Scenario:   r.ScenarioName,
		Outcome:    string(r.Outcome),
		DurationMs: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		jr.Error = r.Err.Error()
	}
	for _, s := range r.Steps {
		js := jsonStep{
			Name:          s.Name,
			Stdout:        s.Stdout,
			Stderr:        s.Stderr,
			ExitCode:      s.ExitCode,
			MatchedRegex:  s.MatchedRegex,
			HasRegexCheck: s.HasRegexCheck,
			DurationMs:    s.Duration.Milliseconds(),
		}
		if s.Err != nil {
			js.Error = s.Err.Error()
		}
		jr.Steps = append(jr.Steps, js)
	}
	for _, ve := range r.ValidatorErrors {
		jr.ValidatorErrors = append(jr.ValidatorErrors, toJSONValidatorError(ve))
	}
	return jr
}

func toJSONValidatorError(ve validate.Error) jsonValidatorError {
	return jsonValidatorError{
		Validator:   ve.Validator,
		Expectation: ve.Expectation,
		SpanIDs:     ve.SpanIDs,
		SpanNames:   ve.SpanNames,
		Message:     ve.Message,
	}
}
