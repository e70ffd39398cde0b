package validate

import (
	"fmt"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

type orderValidator struct{}

func (orderValidator) Name() string { return "order" }

func (orderValidator) Validate(expect config.Expectations, spans []span.Data) []Error {
	if expect.Order == nil {
		return nil
	}
	var errs []Error
	for _, pair := range expect.Order.MustPrecede {
		errs = append(errs, checkOrderPair("order.must_precede", pair, spans, true)...)
	}
	for _, pair := range expect.Order.MustFollow {
		errs = append(errs, checkOrderPair("order.must_follow", pair, spans, false)...)
	}
	return errs
}

// checkOrderPair checks every (a, b) combination of spans matching pair.A
// and pair.B. precede=true requires a.start < b.start (must_precede);
// precede=false requires the symmetric a.start > b.start (must_follow).
// An empty match set on either side is vacuously satisfied: there's
// nothing to violate the ordering.
func checkOrderPair(label string, pair config.NamePair, spans []span.Data, precede bool) []Error {
	as := matching(pair.A, spans)
	bs := matching(pair.B, spans)

	var errs []Error
	for _, a := range as {
		for _, b := range bs {
			var ok bool
			var msg string
			if precede {
				ok = a.StartTime.Before(b.StartTime)
				msg = fmt.Sprintf("%s at %s does not precede %s at %s", a.Name, a.StartTime, b.Name, b.StartTime)
			} else {
				ok = a.StartTime.After(b.StartTime)
				msg = fmt.Sprintf("%s at %s does not follow %s at %s", a.Name, a.StartTime, b.Name, b.StartTime)
			}
			if !ok {
				errs = append(errs, Error{
					Validator:   "order",
					Expectation: fmt.Sprintf("%s[%s,%s]", label, pair.A, pair.B),
					SpanIDs:     []string{a.SpanID, b.SpanID},
					SpanNames:   []string{a.Name, b.Name},
					Message:     msg,
				})
			}
		}
	}
	return errs
}
