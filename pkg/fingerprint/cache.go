package fingerprint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// Entry is one scenario's last recorded outcome, keyed by scenario name in
// a Cache.
type Entry struct {
	Digest    Digest    `json:"digest"`
	Outcome   string    `json:"outcome"` // "pass", "fail", or "error"
	Timestamp time.Time `json:"timestamp"`
}

// Cache persists scenario_name -> Entry across `cleanroom run` invocations,
// the state `--if-changed` consults. It is safe for concurrent use; writes
// go to a temp file and are renamed into place so a crash mid-write never
// leaves a corrupt cache on disk.
type Cache struct {
	path    string
	mu      sync.Mutex
	entries map[string]Entry
}

// OpenCache loads path if it exists, or starts empty if it doesn't -- a
// missing cache file just means every scenario looks changed.
func OpenCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: map[string]Entry{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, errlog.Wrap(errlog.Io, err, "opening fingerprint cache %s", path)
	}
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, errlog.Wrap(errlog.Io, err, "parsing fingerprint cache %s", path)
	}
	return c, nil
}

// Lookup returns the last recorded entry for a scenario, if any.
func (c *Cache) Lookup(scenarioName string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[scenarioName]
	return e, ok
}

// Unchanged reports whether digest matches the last recorded digest for
// scenarioName and that prior run passed -- the precise condition
// `--if-changed` uses to decide a scenario can be skipped.
func (c *Cache) Unchanged(scenarioName string, digest Digest) bool {
	e, ok := c.Lookup(scenarioName)
	return ok && e.Digest == digest && e.Outcome == "pass"
}

// Record stores a new entry and persists the cache to disk.
func (c *Cache) Record(scenarioName string, e Entry) error {
	c.mu.Lock()
	c.entries[scenarioName] = e
	snapshot := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.Unlock()
	return c.persist(snapshot)
}

func (c *Cache) persist(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errlog.Wrap(errlog.Internal, err, "encoding fingerprint cache")
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errlog.Wrap(errlog.Io, err, "creating %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".cleanroom-cache-*.tmp")
	if err != nil {
		return errlog.Wrap(errlog.Io, err, "creating temp file for fingerprint cache")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errlog.Wrap(errlog.Io, err, "writing fingerprint cache")
	}
	if err := tmp.Close(); err != nil {
		return errlog.Wrap(errlog.Io, err, "closing fingerprint cache temp file")
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return errlog.Wrap(errlog.Io, err, "renaming fingerprint cache into place")
	}
	return nil
}
