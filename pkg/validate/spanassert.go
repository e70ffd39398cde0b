package validate

import (
	"fmt"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

type spanAssertionValidator struct{}

func (spanAssertionValidator) Name() string { return "span" }

func (spanAssertionValidator) Validate(expect config.Expectations, spans []span.Data) []Error {
	var errs []Error
	for _, assertion := range expect.Spans {
		matches := matching(assertion.Name, spans)
		if len(matches) == 0 {
			if assertion.Required {
				errs = append(errs, Error{
					Validator:   "span",
					Expectation: fmt.Sprintf("spans[%s]", assertion.Name),
					SpanNames:   []string{assertion.Name},
					Message:     fmt.Sprintf("required span %q was never emitted", assertion.Name),
				})
			}
			continue
		}
		for _, d := range matches {
			errs = append(errs, checkSpanAssertion(assertion, d)...)
		}
	}
	return errs
}

func checkSpanAssertion(a config.SpanAssertion, d span.Data) []Error {
	var errs []Error
	ref := fmt.Sprintf("spans[%s]", a.Name)

	for key, want := range a.Attributes {
		if got := d.Attributes[key]; got != want {
			errs = append(errs, Error{
				Validator:   "span",
				Expectation: ref,
				SpanIDs:     []string{d.SpanID},
				SpanNames:   []string{d.Name},
				Message:     fmt.Sprintf("span %q attribute %q = %q, want %q", d.Name, key, got, want),
			})
		}
	}

	durationMs := d.Duration().Milliseconds()
	if a.DurationMinMs != nil && durationMs < *a.DurationMinMs {
		errs = append(errs, Error{
			Validator:   "span",
			Expectation: ref,
			SpanIDs:     []string{d.SpanID},
			SpanNames:   []string{d.Name},
			Message:     fmt.Sprintf("span %q duration %dms < min %dms", d.Name, durationMs, *a.DurationMinMs),
		})
	}
	if a.DurationMaxMs != nil && durationMs > *a.DurationMaxMs {
		errs = append(errs, Error{
			Validator:   "span",
			Expectation: ref,
			SpanIDs:     []string{d.SpanID},
			SpanNames:   []string{d.Name},
			Message:     fmt.Sprintf("span %q duration %dms > max %dms", d.Name, durationMs, *a.DurationMaxMs),
		})
	}
	return errs
}
