// Package span is Cleanroom's OpenTelemetry-shaped trace model (spec.md
// section 4.8): the SpanData a service container reports, and the
// in-process Collector every validator in pkg/validate reads from.
package span

import (
	"encoding/json"
	"time"
)

// Status mirrors OpenTelemetry's three-value span status.
type Status int

const (
	StatusUnset Status = iota
	StatusOK
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// ParseStatus converts the wire string form ("ok"/"error"/"unset") back
// into a Status, defaulting to StatusUnset for anything unrecognized.
func ParseStatus(s string) Status {
	switch s {
	case "ok":
		return StatusOK
	case "error":
		return StatusError
	default:
		return StatusUnset
	}
}

// Data is one reported span. Field names follow the OpenTelemetry data
// model rather than any one vendor's SDK, since Cleanroom only ever
// receives spans over its own ingest wire format (spec.md section 4.8),
// never a vendor collector protocol.
type Data struct {
	TraceID      string            `json:"trace_id"`
	SpanID       string            `json:"span_id"`
	ParentSpanID string            `json:"parent_span_id,omitempty"`
	Name         string            `json:"name"`
	ServiceName  string            `json:"service_name"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	Status       Status            `json:"-"`
	StatusWire   string            `json:"status"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	ResourceAttrs map[string]string `json:"resource_attrs,omitempty"`
}

// Duration is the span's wall-clock length.
func (d Data) Duration() time.Duration {
	return d.EndTime.Sub(d.StartTime)
}

// dataAlias breaks the recursion UnmarshalJSON/MarshalJSON would otherwise
// cause by calling json.Marshal/Unmarshal on Data itself.
type dataAlias Data

// MarshalJSON writes Status out as its wire string form.
func (d Data) MarshalJSON() ([]byte, error) {
	d.StatusWire = d.Status.String()
	return json.Marshal(dataAlias(d))
}

// UnmarshalJSON reads the wire string form back into the typed Status.
func (d *Data) UnmarshalJSON(b []byte) error {
	var a dataAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = Data(a)
	d.Status = ParseStatus(d.StatusWire)
	return nil
}
