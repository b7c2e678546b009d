package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileWatcher:
// - NewFileWatcher returns error with invalid directory
// - A single source file change fires the callback after debounce
// - Multiple changes are batched, deduplicated and sorted
// - Pause/Resume accumulates during pause and fires on resume
// - Deleted files are reported
// - New directories are watched; skipped and hidden directories are not
// - Only analyzable extensions trigger callbacks
// - Stop is idempotent and safe to call concurrently

const testDebounce = 50 * time.Millisecond

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWatcher(t *testing.T, root string) FileWatcher {
	t.Helper()
	w, err := NewFileWatcher(root, WithDebounce(testDebounce), WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })
	return w
}

// recorder collects callback batches.
type recorder struct {
	mu      sync.Mutex
	batches [][]string
	called  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{called: make(chan struct{}, 16)}
}

func (r *recorder) callback(files []string) {
	r.mu.Lock()
	r.batches = append(r.batches, files)
	r.mu.Unlock()
	r.called <- struct{}{}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.called:
	case <-time.After(2 * time.Second):
		t.Fatal("callback not called after timeout")
	}
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func start(t *testing.T, w FileWatcher, r *recorder) {
	t.Helper()
	require.NoError(t, w.Start(context.Background(), r.callback))
	// Wait for watcher to initialize
	time.Sleep(100 * time.Millisecond)
}

func TestNewFileWatcher_InvalidDirectory(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher(filepath.Join(t.TempDir(), "nonexistent"))
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestFileWatcher_SingleFileChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	rec := newRecorder()
	start(t, w, rec)

	file := filepath.Join(dir, "shape.py")
	require.NoError(t, os.WriteFile(file, []byte("class Shape: pass\n"), 0o644))

	rec.wait(t)
	assert.Equal(t, []string{file}, rec.all())
}

func TestFileWatcher_BatchesAndDeduplicates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewFileWatcher(dir, WithDebounce(300*time.Millisecond), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer w.Stop()

	rec := newRecorder()
	start(t, w, rec)

	b := filepath.Join(dir, "b.java")
	a := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(b, []byte("class B {}"), 0o644))
	time.Sleep(50 * time.Millisecond) // Less than debounce time
	require.NoError(t, os.WriteFile(a, []byte("class A {}"), 0o644))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(b, []byte("class B extends A {}"), 0o644))

	rec.wait(t)
	time.Sleep(500 * time.Millisecond)

	assert.Equal(t, 1, rec.count(), "rapid changes should coalesce into one callback")
	assert.Equal(t, []string{a, b}, rec.all())
}

func TestFileWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	rec := newRecorder()
	start(t, w, rec)

	w.Pause()
	file := filepath.Join(dir, "paused.py")
	require.NoError(t, os.WriteFile(file, []byte("class Paused: pass\n"), 0o644))

	// Wait beyond debounce period - callback should NOT fire
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, rec.count(), "no callbacks should fire while paused")

	w.Resume()
	rec.wait(t)
	assert.Contains(t, rec.all(), file)
}

func TestFileWatcher_FileDeleted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "gone.cs")
	require.NoError(t, os.WriteFile(file, []byte("class Gone {}"), 0o644))

	w := newTestWatcher(t, dir)
	rec := newRecorder()
	start(t, w, rec)

	require.NoError(t, os.Remove(file))

	rec.wait(t)
	assert.Contains(t, rec.all(), file)
}

func TestFileWatcher_DirectoryAdded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	rec := newRecorder()
	start(t, w, rec)

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the watcher time to add the new directory
	time.Sleep(200 * time.Millisecond)

	file := filepath.Join(sub, "mod.py")
	require.NoError(t, os.WriteFile(file, []byte("class Mod: pass\n"), 0o644))

	rec.wait(t)
	assert.Contains(t, rec.all(), file)
}

func TestFileWatcher_Filtering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	vendored := filepath.Join(dir, "node_modules", "lib")
	hidden := filepath.Join(dir, ".cache")
	require.NoError(t, os.MkdirAll(vendored, 0o755))
	require.NoError(t, os.MkdirAll(hidden, 0o755))

	w := newTestWatcher(t, dir)
	rec := newRecorder()
	start(t, w, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".eslintrc.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(vendored, "x.js"), []byte("class X {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(hidden, "y.py"), []byte("class Y: pass"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, rec.count(), "non-source and skipped paths should not trigger")

	file := filepath.Join(dir, "point.hpp")
	require.NoError(t, os.WriteFile(file, []byte("struct Point {};"), 0o644))

	rec.wait(t)
	assert.Equal(t, []string{file}, rec.all())
}

func TestFileWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	rec := newRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, rec.callback))
	time.Sleep(100 * time.Millisecond)
	cancel()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.py"), []byte("class Late: pass\n"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestFileWatcher_ConcurrentStop(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher(t.TempDir(), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background(), func([]string) {}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Stop()
		}()
	}
	wg.Wait()
	assert.NoError(t, w.Stop())
}

func TestFileWatcher_StopWithoutStart(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher(t.TempDir(), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}
