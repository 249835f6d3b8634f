package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRecorder struct {
	mu         sync.Mutex
	activities []model.Activity
}

func (r *mockRecorder) RecordActivity(activity model.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, activity)
	return nil
}

func (r *mockRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activities)
}

func (r *mockRecorder) recorded() []model.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Activity(nil), r.activities...)
}

type mockStats struct {
	mu    sync.Mutex
	calls int
}

func (s *mockStats) Stats() model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return model.Stats{ActiveTime: "1m"}
}

func (s *mockStats) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

const testDebounce = 50 * time.Millisecond

func startWatcher(t *testing.T, root string, rec ActivityRecorder, opts WatcherOptions) *ActivityWatcher {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = testDebounce
	}
	w := NewActivityWatcher(root, rec, opts)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func writeEvent(root, rel string) fsnotify.Event {
	return fsnotify.Event{Name: filepath.Join(root, filepath.FromSlash(rel)), Op: fsnotify.Write}
}

func TestWatcherDebounceCoalescesBurst(t *testing.T) {
	root := t.TempDir()
	rec := &mockRecorder{}
	w := startWatcher(t, root, rec, WatcherOptions{})

	for i := 0; i < 10; i++ {
		w.handleEvent(writeEvent(root, "src/app.ts"))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, model.FileChanged{Path: "src/app.ts"}, rec.recorded()[0])
}

func TestWatcherDebounceSpacedEvents(t *testing.T) {
	root := t.TempDir()
	rec := &mockRecorder{}
	w := startWatcher(t, root, rec, WatcherOptions{})

	const n = 3
	for i := 1; i <= n; i++ {
		w.handleEvent(writeEvent(root, "index.html"))
		require.Eventually(t, func() bool { return rec.count() == i }, time.Second, 5*time.Millisecond)
	}
	assert.Equal(t, n, rec.count())
}

func TestWatcherDebounceIsPerPath(t *testing.T) {
	root := t.TempDir()
	rec := &mockRecorder{}
	w := startWatcher(t, root, rec, WatcherOptions{})

	for i := 0; i < 3; i++ {
		w.handleEvent(writeEvent(root, "a.ts"))
		w.handleEvent(writeEvent(root, "b.css"))
	}

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)
	assert.ElementsMatch(t,
		[]model.Activity{model.FileChanged{Path: "a.ts"}, model.FileChanged{Path: "b.css"}},
		rec.recorded())
}

func TestWatcherFiltersEvents(t *testing.T) {
	root := t.TempDir()
	rec := &mockRecorder{}
	w := startWatcher(t, root, rec, WatcherOptions{})

	w.handleEvent(writeEvent(root, "README.md"))
	w.handleEvent(writeEvent(root, "node_modules/pkg/index.js"))
	w.handleEvent(writeEvent(root, ".git/config.json"))
	w.handleEvent(writeEvent(root, "dist/bundle.js"))
	w.handleEvent(writeEvent(root, ".tracker-session.json"))
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "main.js"), Op: fsnotify.Chmod})

	time.Sleep(4 * testDebounce)
	assert.Equal(t, 0, rec.count())
}

func TestWatcherEmitsChangeEvents(t *testing.T) {
	root := t.TempDir()
	rec := &mockRecorder{}
	w := startWatcher(t, root, rec, WatcherOptions{})

	w.handleEvent(writeEvent(root, "styles/site.css"))

	select {
	case ev := <-w.Changes():
		assert.Equal(t, "styles/site.css", ev.RelativePath)
		assert.Equal(t, filepath.Join(root, "styles", "site.css"), ev.Path)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no change event emitted")
	}
}

func TestWatcherStartWatchesTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "solution")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "components"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "lib"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0755))

	w := startWatcher(t, root, &mockRecorder{}, WatcherOptions{})

	assert.True(t, w.Running())
	assert.Equal(t, []string{".", "src", "src/components"}, w.WatchedDirs())
}

func TestWatcherCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing", "solution")
	startWatcher(t, root, &mockRecorder{}, WatcherOptions{})

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWatcherRecordsRealFileWrites(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	rec := &mockRecorder{}
	startWatcher(t, root, rec, WatcherOptions{})

	target := filepath.Join(root, "src", "app.tsx")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("export {}\n"), 0644))
	}

	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, model.FileChanged{Path: "src/app.tsx"}, rec.recorded()[0])
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	rec := &mockRecorder{}
	w := startWatcher(t, root, rec, WatcherOptions{})

	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages"), 0755))
	require.Eventually(t, func() bool {
		for _, d := range w.WatchedDirs() {
			if d == "pages" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "home.jsx"), []byte("x"), 0644))
	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, model.FileChanged{Path: "pages/home.jsx"}, rec.recorded()[0])
}

func TestWatcherRescan(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, &mockRecorder{}, WatcherOptions{})

	// fsnotify may already have reported these; Rescan must be harmless either way
	require.NoError(t, os.MkdirAll(filepath.Join(root, "late", "nested"), 0755))
	require.NoError(t, w.Rescan())

	assert.Contains(t, w.WatchedDirs(), "late")
	assert.Contains(t, w.WatchedDirs(), "late/nested")
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	root := t.TempDir()
	rec := &mockRecorder{}
	w := NewActivityWatcher(root, rec, WatcherOptions{Debounce: time.Hour})
	require.NoError(t, w.Start(context.Background()))

	w.handleEvent(writeEvent(root, "pending.ts"))
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
	assert.False(t, w.Running())

	_, open := <-w.Changes()
	assert.False(t, open)
	assert.Equal(t, 0, rec.count(), "pending timers are cancelled")
	assert.Error(t, w.Rescan())
	assert.Error(t, w.Start(context.Background()))
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	w := NewActivityWatcher(root, &mockRecorder{}, WatcherOptions{})
	require.NoError(t, w.Start(ctx))

	cancel()
	require.Eventually(t, func() bool { return !w.Running() }, time.Second, 5*time.Millisecond)
}

func TestWatcherHeartbeatReadsStats(t *testing.T) {
	root := t.TempDir()
	stats := &mockStats{}
	startWatcher(t, root, &mockRecorder{}, WatcherOptions{Heartbeat: 20 * time.Millisecond, Stats: stats})

	require.Eventually(t, func() bool { return stats.callCount() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestWatcherFeedsManager(t *testing.T) {
	m, _, _ := newTestManager(t)
	root := t.TempDir()
	w := startWatcher(t, root, m, WatcherOptions{Stats: m})

	w.handleEvent(writeEvent(root, "src/index.ts"))
	require.Eventually(t, func() bool { return m.Stats().FilesModified == 1 }, time.Second, 10*time.Millisecond)

	doc := m.Data()
	assert.Equal(t, model.FileSet{"src/index.ts"}, doc.FilesModified)
	assert.Len(t, doc.Sessions, 1)
}

// blockingRecorder holds RecordActivity until release is closed
type blockingRecorder struct {
	entered  chan struct{}
	release  chan struct{}
	mu       sync.Mutex
	finished bool
}

func (r *blockingRecorder) RecordActivity(model.Activity) error {
	close(r.entered)
	<-r.release
	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()
	return nil
}

func (r *blockingRecorder) done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

func TestWatcherStopWaitsForRecordInProgress(t *testing.T) {
	root := t.TempDir()
	rec := &blockingRecorder{entered: make(chan struct{}), release: make(chan struct{})}
	w := startWatcher(t, root, rec, WatcherOptions{})

	w.handleEvent(writeEvent(root, "src/app.ts"))
	select {
	case <-rec.entered:
	case <-time.After(time.Second):
		t.Fatal("debounced record never started")
	}

	stopped := make(chan struct{})
	go func() {
		_ = w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a record was still in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(rec.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the record finished")
	}
	assert.True(t, rec.done())
}

func TestStopThenEndLeavesNoOpenSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	root := t.TempDir()
	w := NewActivityWatcher(root, m, WatcherOptions{Debounce: testDebounce})
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, m.RecordActivity(model.ManualNote{Text: "_tracker_started"}))
	w.handleEvent(writeEvent(root, "src/app.ts"))
	time.Sleep(testDebounce + 10*time.Millisecond)

	require.NoError(t, w.Stop())
	require.NoError(t, m.EndCurrentSession(nil))

	assert.Nil(t, m.Data().OpenSession())
}
