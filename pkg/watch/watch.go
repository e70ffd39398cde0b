// Package watch implements `cleanroom dev`'s debounced re-run loop: watch
// a scenario file (and whatever it {% include %}s) and re-run it through
// pkg/executor whenever it changes, cancelling any run still in flight.
package watch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// debounceWindow coalesces the burst of events a single save often
// produces (editors frequently write, chmod, then rename) into one
// re-run.
const debounceWindow = 150 * time.Millisecond

// RunFunc is invoked once per debounced change; ctx is cancelled if
// another change arrives before RunFunc returns.
type RunFunc func(ctx context.Context)

// Watcher watches a fixed set of paths and invokes a RunFunc on change,
// with a bounded debounce window and in-flight cancellation.
type Watcher struct {
	paths []string
	run   RunFunc

	fsw *fsnotify.Watcher
}

// New builds a Watcher over paths, adding each to a fresh fsnotify
// watcher. Start must be called to begin watching.
func New(paths []string, run RunFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errlog.Wrap(errlog.Internal, err, "creating file watcher")
	}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, errlog.Wrap(errlog.Io, err, "watching %s", p)
		}
	}
	return &Watcher{paths: paths, run: run, fsw: fsw}, nil
}

// Start runs an initial pass immediately, then blocks, re-running on every
// debounced change, until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.fsw.Close()

	runCtx, cancelRun := context.WithCancel(ctx)
	go w.run(runCtx)

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			cancelRun()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				cancelRun()
				return nil
			}
			if !isContentEvent(event) {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(debounceWindow, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			} else {
				debounce.Reset(debounceWindow)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				cancelRun()
				return nil
			}
			errlog.LogError(errlog.Wrap(errlog.Io, err, "watching scenario files"))

		case <-pending:
			cancelRun()
			runCtx, cancelRun = context.WithCancel(ctx)
			go w.run(runCtx)
		}
	}
}

// isContentEvent filters out events that never change a file's content
// (e.g. bare chmod), so a chmod between an editor's write and rename
// doesn't trigger two re-runs on its own.
func isContentEvent(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
