package validate

import (
	"fmt"
	"strings"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

type statusValidator struct{}

func (statusValidator) Name() string { return "status" }

func (statusValidator) Validate(expect config.Expectations, spans []span.Data) []Error {
	if expect.Status == nil {
		return nil
	}
	s := expect.Status
	if s.All == "" && len(s.ByName) == 0 {
		return nil
	}

	var errs []Error
	for _, d := range spans {
		want, ok := overrideFor(s.ByName, d.Name)
		if !ok {
			if s.All == "" {
				continue
			}
			want = s.All
		}
		// Config statuses are written OK|ERROR|UNSET (spec.md section 3);
		// span.Status.String() renders lowercase. Compare case-insensitively
		// rather than demanding scenario authors match the wire form.
		if !strings.EqualFold(d.Status.String(), want) {
			errs = append(errs, Error{
				Validator:   "status",
				Expectation: "status",
				SpanIDs:     []string{d.SpanID},
				SpanNames:   []string{d.Name},
				Message:     fmt.Sprintf("span %q has status %s, want %s", d.Name, d.Status, want),
			})
		}
	}
	return errs
}

// overrideFor returns the first by_name pattern matching name, refining
// the global default per spec.md's "per-name overrides refine" rule.
func overrideFor(byName map[string]string, name string) (string, bool) {
	for pattern, want := range byName {
		if matchName(pattern, name) {
			return want, true
		}
	}
	return "", false
}
