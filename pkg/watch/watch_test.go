package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherRunsOnStartAndOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.toml")
	if err := os.WriteFile(path, []byte("name = \"a\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var runs int32
	w, err := New([]string{path}, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&runs) < 1 {
		t.Fatal("expected an initial run on Start")
	}

	if err := os.WriteFile(path, []byte("name = \"b\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&runs) < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if atomic.LoadInt32(&runs) < 2 {
		t.Fatal("expected a second run after the file changed")
	}

	cancel()
	<-done
}
