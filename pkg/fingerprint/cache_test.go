package fingerprint

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if _, ok := c.Lookup("checkout-flow"); ok {
		t.Fatal("expected no entry in a fresh cache")
	}

	entry := Entry{Digest: "abc123", Outcome: "pass", Timestamp: time.Now()}
	if err := c.Record("checkout-flow", entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	reopened, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache (reopen): %v", err)
	}
	got, ok := reopened.Lookup("checkout-flow")
	if !ok {
		t.Fatal("expected entry to survive reopening the cache file")
	}
	if got.Digest != "abc123" || got.Outcome != "pass" {
		t.Errorf("Lookup() = %+v, want digest abc123 / pass", got)
	}
}

func TestCacheUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c, _ := OpenCache(path)

	if c.Unchanged("s", "abc") {
		t.Error("Unchanged should be false with no recorded entry")
	}

	c.Record("s", Entry{Digest: "abc", Outcome: "fail", Timestamp: time.Now()})
	if c.Unchanged("s", "abc") {
		t.Error("Unchanged should be false when the last outcome was a failure")
	}

	c.Record("s", Entry{Digest: "abc", Outcome: "pass", Timestamp: time.Now()})
	if !c.Unchanged("s", "abc") {
		t.Error("Unchanged should be true for a matching digest and a passing last run")
	}
	if c.Unchanged("s", "def") {
		t.Error("Unchanged should be false for a different digest")
	}
}

func TestOpenCacheMissingFile(t *testing.T) {
	c, err := OpenCache(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if _, ok := c.Lookup("anything"); ok {
		t.Fatal("expected empty cache for a missing file")
	}
}
