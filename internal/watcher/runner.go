// Package watcher re-runs analysis when source files under a root change.
package watcher

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/mvp-joe/classmap/internal/scanner"
)

// Update is delivered for the initial scan and after every batch of changes.
type Update struct {
	Result  *scanner.Result
	Err     error
	Changed []string // empty for the initial scan
}

// Runner ties a FileWatcher to a Scanner.
type Runner struct {
	root    string
	scanner *scanner.Scanner
	watcher FileWatcher
	logger  *slog.Logger
}

// NewRunner creates a Runner. The scanner should carry a cache so that
// language partitions untouched by a change are reused.
func NewRunner(root string, s *scanner.Scanner, w FileWatcher, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{root: root, scanner: s, watcher: w, logger: logger}
}

// Run scans once, then rescans after each debounced batch of changes until
// ctx is cancelled. The watcher is paused while a scan is in progress, so
// changes made during a scan arrive as the next batch. The watcher is
// stopped when Run returns.
func (r *Runner) Run(ctx context.Context, handle func(Update)) error {
	defer r.watcher.Stop()

	pending := newBatch()
	if err := r.watcher.Start(ctx, pending.add); err != nil {
		return err
	}

	r.watcher.Pause()
	r.scan(ctx, nil, handle)
	r.watcher.Resume()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending.ready:
			files := pending.take()
			if len(files) == 0 {
				continue
			}
			r.logger.Info("changes detected", "files", len(files))
			r.watcher.Pause()
			r.scan(ctx, files, handle)
			r.watcher.Resume()
		}
	}
}

func (r *Runner) scan(ctx context.Context, changed []string, handle func(Update)) {
	result, err := r.scanner.Scan(ctx, r.root)
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		r.logger.Warn("rescan failed", "error", err)
	}
	handle(Update{Result: result, Err: err, Changed: changed})
}

// batch merges change notifications without ever blocking the watcher.
type batch struct {
	mu    sync.Mutex
	files map[string]bool
	ready chan struct{}
}

func newBatch() *batch {
	return &batch{files: make(map[string]bool), ready: make(chan struct{}, 1)}
}

func (b *batch) add(files []string) {
	b.mu.Lock()
	for _, f := range files {
		b.files[f] = true
	}
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
}

func (b *batch) take() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	files := make([]string, 0, len(b.files))
	for f := range b.files {
		files = append(files, f)
	}
	b.files = make(map[string]bool)
	sort.Strings(files)
	return files
}
