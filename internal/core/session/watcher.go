package session

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-worktime-tracker/internal/core/constants"
	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/penwyp/go-worktime-tracker/internal/util"
)

// ChangeEvent is emitted once per debounced file change
type ChangeEvent struct {
	Path         string
	RelativePath string
	Timestamp    time.Time
}

// WatcherOptions configures an ActivityWatcher. Zero values fall back to defaults.
type WatcherOptions struct {
	Matcher   *PathMatcher
	Debounce  time.Duration
	Heartbeat time.Duration
	Stats     StatsProvider
	Clock     util.Clock
}

type pendingChange struct {
	timer *time.Timer
	seq   uint64
}

// ActivityWatcher turns filesystem events below root into recorded activity.
// Bursts of events for the same file collapse into one record after a quiet
// period.
type ActivityWatcher struct {
	root     string
	recorder ActivityRecorder
	matcher  *PathMatcher
	debounce time.Duration
	interval time.Duration
	stats    StatsProvider
	clock    util.Clock

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]*pendingChange
	seq     uint64
	dirs    map[string]struct{}
	changes chan ChangeEvent
	done    chan struct{}
	running bool
	stopped bool
	wg      sync.WaitGroup
	// fires counts debounced records that are past the running check
	fires sync.WaitGroup
}

// NewActivityWatcher creates a watcher for root. Nothing is watched until Start.
func NewActivityWatcher(root string, recorder ActivityRecorder, opts WatcherOptions) *ActivityWatcher {
	if opts.Matcher == nil {
		opts.Matcher = DefaultPathMatcher()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = constants.DebounceWindow
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = constants.HeartbeatInterval
	}
	if opts.Clock == nil {
		opts.Clock = util.SystemClock{}
	}

	return &ActivityWatcher{
		root:     root,
		recorder: recorder,
		matcher:  opts.Matcher,
		debounce: opts.Debounce,
		interval: opts.Heartbeat,
		stats:    opts.Stats,
		clock:    opts.Clock,
		pending:  make(map[string]*pendingChange),
		dirs:     make(map[string]struct{}),
		changes:  make(chan ChangeEvent, 100),
		done:     make(chan struct{}),
	}
}

func watchLogger() util.LoggerInterface {
	return util.Component("watcher")
}

// Start creates root if needed, watches it and every non-ignored
// subdirectory, and begins processing events. The watcher stops when ctx is
// cancelled or Stop is called.
func (w *ActivityWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if w.stopped {
		return fmt.Errorf("watcher for %s already stopped", w.root)
	}

	if err := os.MkdirAll(w.root, 0755); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = fsw
	w.running = true

	w.addTree(w.root)

	w.wg.Add(2)
	go w.processEvents(fsw)
	go w.heartbeat()

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.done:
		}
	}()

	watchLogger().Info("Activity watcher started",
		util.F("root", w.root), util.F("directories", len(w.dirs)))
	return nil
}

// Stop closes the watches, cancels pending debounce timers and the
// heartbeat, and closes the Changes channel. A record already handed to the
// recorder completes before Stop returns. Safe to call more than once.
func (w *ActivityWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.stopped = true

	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	close(w.done)
	close(w.changes)
	fsw := w.watcher
	w.mu.Unlock()

	var err error
	if fsw != nil {
		err = fsw.Close()
	}
	w.wg.Wait()
	w.fires.Wait()
	watchLogger().Info("Activity watcher stopped", util.F("root", w.root))
	return err
}

// Rescan walks root again and watches directories created since Start
func (w *ActivityWatcher) Rescan() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return fmt.Errorf("watcher for %s is not running", w.root)
	}
	w.addTree(w.root)
	return nil
}

// Changes delivers coalesced change notifications. Events are dropped when
// nobody reads them. The channel is closed by Stop.
func (w *ActivityWatcher) Changes() <-chan ChangeEvent {
	return w.changes
}

// Running reports whether the watcher is active
func (w *ActivityWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// WatchedDirs lists watched directories relative to root, sorted
func (w *ActivityWatcher) WatchedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := make([]string, 0, len(w.dirs))
	for dir := range w.dirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// addTree recursively watches dir. A directory that cannot be watched is
// logged and its siblings are still visited. Caller holds w.mu.
func (w *ActivityWatcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			watchLogger().Error("Cannot read directory", util.F("path", p), util.F("error", err))
			if d != nil && d.IsDir() && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel := w.relative(p)
		if rel != "." && !w.matcher.WatchDir(rel) {
			return filepath.SkipDir
		}
		if _, ok := w.dirs[rel]; ok {
			return nil
		}

		if err := w.watcher.Add(p); err != nil {
			watchLogger().Error("Cannot watch directory", util.F("path", p), util.F("error", err))
			return nil
		}
		w.dirs[rel] = struct{}{}
		watchLogger().Debug("Watching directory", util.F("path", rel))
		return nil
	})
}

func (w *ActivityWatcher) relative(p string) string {
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (w *ActivityWatcher) processEvents(fsw *fsnotify.Watcher) {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			// Log error but continue running
			watchLogger().Error("File monitoring error", util.F("error", err))
		}
	}
}

// handleEvent filters one raw event and (re)arms the debounce timer for its path
func (w *ActivityWatcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	rel := w.relative(event.Name)

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if _, ok := w.dirs[rel]; ok {
			delete(w.dirs, rel)
			return
		}
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.matcher.WatchDir(rel) {
				w.addTree(event.Name)
			}
			return
		}
	}

	if !w.matcher.Tracked(rel) {
		return
	}

	if p, ok := w.pending[event.Name]; ok {
		p.timer.Stop()
	}
	w.seq++
	seq := w.seq
	path := event.Name
	w.pending[path] = &pendingChange{
		seq: seq,
		timer: time.AfterFunc(w.debounce, func() {
			w.fire(path, rel, seq)
		}),
	}
}

// fire records the change once the path has been quiet for the debounce window
func (w *ActivityWatcher) fire(path, rel string, seq uint64) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !w.running || !ok || p.seq != seq {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.fires.Add(1)
	defer w.fires.Done()
	w.mu.Unlock()

	if err := w.recorder.RecordActivity(model.FileChanged{Path: rel}); err != nil {
		watchLogger().Error("Failed to record file change", util.F("path", rel), util.F("error", err))
	}
	watchLogger().Debug("File changed", util.F("path", rel))

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	select {
	case w.changes <- ChangeEvent{Path: path, RelativePath: rel, Timestamp: w.clock.Now()}:
	default:
	}
}

func (w *ActivityWatcher) heartbeat() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if w.stats == nil {
				continue
			}
			stats := w.stats.Stats()
			watchLogger().Info("Tracking heartbeat",
				util.F("activeTime", stats.ActiveTime),
				util.F("sessions", stats.Sessions),
				util.F("files", stats.FilesModified))
		}
	}
}
