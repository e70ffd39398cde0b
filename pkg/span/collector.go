package span

import "sync"

// Collector is a thread-safe in-process store of every span reported
// during a scenario run. pkg/executor snapshots it for pkg/validate once the
// steps have run, before services are torn down; Server's HTTP ingest writes
// to it as containers push.
type Collector struct {
	mu    sync.RWMutex
	spans []Data
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Collect appends one span.
func (c *Collector) Collect(d Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = append(c.spans, d)
}

// Snapshot returns every collected span, in collection order. The returned
// slice is a copy; mutating it does not affect the Collector.
func (c *Collector) Snapshot() []Data {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Data, len(c.spans))
	copy(out, c.spans)
	return out
}

// ByName returns every collected span with the given name.
func (c *Collector) ByName(name string) []Data {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Data
	for _, d := range c.spans {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// ByTraceID returns every collected span sharing the given trace id.
func (c *Collector) ByTraceID(traceID string) []Data {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Data
	for _, d := range c.spans {
		if d.TraceID == traceID {
			out = append(out, d)
		}
	}
	return out
}

// Len reports how many spans have been collected.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.spans)
}

// Clear discards every collected span, so one Collector can be reused
// between scenarios sharing one process.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = nil
}
