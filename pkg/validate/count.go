package validate

import (
	"fmt"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

type countValidator struct{}

func (countValidator) Name() string { return "count" }

func (countValidator) Validate(expect config.Expectations, spans []span.Data) []Error {
	if expect.Counts == nil {
		return nil
	}
	var errs []Error
	c := expect.Counts

	if c.SpansTotal != nil {
		if err := checkCount(*c.SpansTotal, "spans_total", spans); err != nil {
			errs = append(errs, *err)
		}
	}
	for _, constraint := range c.ByName {
		ref := fmt.Sprintf("counts.by_name[%s]", constraint.Pattern)
		if err := checkCount(constraint, ref, spans); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

func checkCount(c config.CountConstraint, ref string, spans []span.Data) *Error {
	n := int64(len(matching(c.Pattern, spans)))
	ok := false
	switch c.Op {
	case config.CountEq:
		ok = n == c.N
	case config.CountGte:
		ok = n >= c.N
	case config.CountLte:
		ok = n <= c.N
	}
	if ok {
		return nil
	}
	return &Error{
		Validator:   "count",
		Expectation: ref,
		Message:     fmt.Sprintf("expected count %s %d, got %d", c.Op, c.N, n),
	}
}
