package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/cleanroom-dev/cleanroom/pkg/executor"
)

// WriteHuman writes a line-oriented report to w: one summary line, then
// per-scenario detail with validator errors grouped by validator name, the
// grouping spec.md section 6 calls for ("the human reporter groups errors
// by scenario, then by validator").
func WriteHuman(w io.Writer, results []executor.Result) error {
	summary := Summarize(results)
	if _, err := fmt.Fprintf(w, "%d/%d scenarios passed", summary.Passed, summary.Total); err != nil {
		return err
	}
	if summary.Failed > 0 || summary.Errored > 0 || summary.Skipped > 0 {
		fmt.Fprintf(w, " (%d failed, %d error, %d skipped)", summary.Failed, summary.Errored, summary.Skipped)
	}
	fmt.Fprintln(w)

	for _, r := range results {
		if err := writeScenarioHuman(w, r); err != nil {
			return err
		}
	}
	return nil
}

func writeScenarioHuman(w io.Writer, r executor.Result) error {
	fmt.Fprintf(w, "\n%s: %s (%s)\n", r.ScenarioName, r.Outcome, r.Duration)
	if r.Err != nil {
		fmt.Fprintf(w, "  error: %s\n", r.Err)
	}

	for _, step := range r.Steps {
		status := "ok"
		if step.Err != nil {
			status = "error: " + step.Err.Error()
		} else if step.HasRegexCheck && !step.MatchedRegex {
			status = "stdout did not match expected pattern"
		}
		fmt.Fprintf(w, "  step %s: %s (exit %d, %s)\n", step.Name, status, step.ExitCode, step.Duration)
	}

	if len(r.ValidatorErrors) == 0 {
		return nil
	}

	byValidator := map[string][]string{}
	var order []string
	for _, ve := range r.ValidatorErrors {
		if _, ok := byValidator[ve.Validator]; !ok {
			order = append(order, ve.Validator)
		}
		byValidator[ve.Validator] = append(byValidator[ve.Validator], ve.Message)
	}
	sort.Strings(order)

	for _, name := range order {
		fmt.Fprintf(w, "  [%s]\n", name)
		for _, msg := range byValidator[name] {
			fmt.Fprintf(w, "    - %s\n", msg)
		}
	}
	return nil
}
