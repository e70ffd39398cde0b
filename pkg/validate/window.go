package validate

import (
	"fmt"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

type windowValidator struct{}

func (windowValidator) Name() string { return "window" }

func (windowValidator) Validate(expect config.Expectations, spans []span.Data) []Error {
	var errs []Error
	for _, w := range expect.Window {
		outers := matching(w.Outer, spans)
		if len(outers) == 0 {
			errs = append(errs, Error{
				Validator:   "window",
				Expectation: fmt.Sprintf("window[outer=%s]", w.Outer),
				Message:     fmt.Sprintf("no span matched outer pattern %q", w.Outer),
			})
			continue
		}
		for _, inner := range w.Contains {
			inners := matching(inner, spans)
			for _, outer := range outers {
				if !outerContainsOne(outer, inners) {
					errs = append(errs, Error{
						Validator:   "window",
						Expectation: fmt.Sprintf("window[outer=%s,contains=%s]", w.Outer, inner),
						SpanIDs:     []string{outer.SpanID},
						SpanNames:   []string{outer.Name},
						Message:     fmt.Sprintf("outer span %q (%s) does not fully contain any instance of %q", outer.Name, outer.SpanID, inner),
					})
				}
			}
		}
	}
	return errs
}

// outerContainsOne reports whether outer fully contains (in wall-clock
// time) at least one of inners. Every outer match must pass this check
// independently -- spec.md requires every instance of the outer pattern to
// contain the inner, not just at least one of them.
func outerContainsOne(outer span.Data, inners []span.Data) bool {
	for _, in := range inners {
		if !in.StartTime.Before(outer.StartTime) && !in.EndTime.After(outer.EndTime) {
			return true
		}
	}
	return false
}
