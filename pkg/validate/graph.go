package validate

import (
	"fmt"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

type graphValidator struct{}

func (graphValidator) Name() string { return "graph" }

func (graphValidator) Validate(expect config.Expectations, spans []span.Data) []Error {
	if expect.Graph == nil {
		return nil
	}
	g := expect.Graph
	byID := indexByID(spans)

	var errs []Error
	for _, pair := range g.MustInclude {
		if !hasEdge(pair.A, pair.B, spans, byID) {
			errs = append(errs, Error{
				Validator:   "graph",
				Expectation: fmt.Sprintf("graph.must_include[%s->%s]", pair.A, pair.B),
				Message:     fmt.Sprintf("no parent-child edge found from %q to %q", pair.A, pair.B),
			})
		}
	}

	if g.Acyclic {
		if cycle := findCycle(spans, byID); cycle != nil {
			errs = append(errs, Error{
				Validator:   "graph",
				Expectation: "graph.acyclic",
				SpanIDs:     cycle,
				Message:     "span parent-child graph contains a cycle",
			})
		}
	}
	return errs
}

func indexByID(spans []span.Data) map[string]span.Data {
	byID := make(map[string]span.Data, len(spans))
	for _, d := range spans {
		byID[d.SpanID] = d
	}
	return byID
}

// hasEdge reports whether at least one span matching childPattern has a
// ParentSpanID that resolves to a span matching parentPattern.
func hasEdge(parentPattern, childPattern string, spans []span.Data, byID map[string]span.Data) bool {
	for _, child := range matching(childPattern, spans) {
		if child.ParentSpanID == "" {
			continue
		}
		parent, ok := byID[child.ParentSpanID]
		if ok && matchName(parentPattern, parent.Name) {
			return true
		}
	}
	return false
}

// findCycle runs a DFS over the parent-child edges and returns the span
// ids forming the first cycle found, or nil if the graph is acyclic.
func findCycle(spans []span.Data, byID map[string]span.Data) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(spans))

	var path []string
	var dfs func(id string) []string
	dfs = func(id string) []string {
		color[id] = gray
		path = append(path, id)
		d, ok := byID[id]
		if ok && d.ParentSpanID != "" {
			switch color[d.ParentSpanID] {
			case gray:
				return append(append([]string{}, path...), d.ParentSpanID)
			case white:
				if cyc := dfs(d.ParentSpanID); cyc != nil {
					return cyc
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, d := range spans {
		if color[d.SpanID] == white {
			if cyc := dfs(d.SpanID); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}
