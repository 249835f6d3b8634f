package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-worktime-tracker/internal/core/constants"
	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/penwyp/go-worktime-tracker/internal/data/store"
	"github.com/penwyp/go-worktime-tracker/internal/util"
)

// ActivityRecorder receives coalesced activity from the watcher
type ActivityRecorder interface {
	RecordActivity(activity model.Activity) error
}

// StatsProvider exposes aggregate stats for the watcher heartbeat
type StatsProvider interface {
	Stats() model.Stats
}

// Option configures a Manager
type Option func(*Manager)

// WithClock overrides the time source
func WithClock(clock util.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithInactivityThreshold overrides the gap that closes a session
func WithInactivityThreshold(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.threshold = d
		}
	}
}

// Manager owns the state document. It is the only component that mutates or
// persists it; everything else gets copies. Every mutation is a full
// load-mutate-save transaction against the store, because hooks and the
// watcher run as separate processes and the file is the only shared state.
type Manager struct {
	store     *store.Store
	clock     util.Clock
	threshold time.Duration

	mu      sync.Mutex
	doc     *model.Document
	current *model.Session
}

// NewManager creates a session manager over the given store
func NewManager(st *store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:     st,
		clock:     util.SystemClock{},
		threshold: constants.InactivityThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func logger() util.LoggerInterface {
	return util.Component("session")
}

func (m *Manager) now() time.Time {
	return util.Stamp(m.clock.Now())
}

// adopt makes doc the in-memory view for this call and picks up its open session
func (m *Manager) adopt(doc *model.Document) {
	m.doc = doc
	m.current = doc.OpenSession()
}

func (m *Manager) update(fn func(doc *model.Document) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Update(func(doc *model.Document, res store.LoadResult) error {
		m.adopt(doc)
		if res.Status == store.StatusReset {
			logger().Warn("Session history discarded", util.F("reason", res.Reason))
		}
		return fn(doc)
	})
	if err != nil {
		logger().Error("Failed to persist session state", util.F("path", m.store.Path()), util.F("error", err))
		return err
	}
	return nil
}

// Load reads the document from disk, creating and persisting a fresh one when
// it is missing or fails verification. An open session becomes current.
func (m *Manager) Load() store.LoadResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, res, err := m.store.Snapshot()
	if err != nil {
		logger().Error("Failed to persist fresh session state", util.F("error", err))
	}
	m.adopt(doc)
	return res
}

// RecordActivity registers one activity at the current time
func (m *Manager) RecordActivity(activity model.Activity) error {
	if activity == nil {
		activity = model.ManualNote{Text: "manual"}
	}

	return m.update(func(doc *model.Document) error {
		now := m.now()
		if err := m.apply(doc, activity); err != nil {
			return err
		}
		m.touchTimeline(doc, now)
		m.advance(doc, now)
		logger().Debug("Activity recorded", util.F("kind", activity.Kind().String()), util.F("label", activity.Label()))
		return nil
	})
}

// RecordCommit appends a commit record and then applies the session boundary logic
func (m *Manager) RecordCommit(hash, message string) error {
	return m.update(func(doc *model.Document) error {
		now := m.now()
		record := model.CommitRecord{
			Hash:      util.TruncateRunes(hash, constants.CommitHashLength),
			Message:   util.TruncateRunes(message, constants.CommitMessageLimit),
			Timestamp: now,
		}
		doc.Commits = append(doc.Commits, record)

		m.touchTimeline(doc, now)
		m.advance(doc, now)
		logger().Info("Commit recorded", util.F("hash", record.Hash))
		return nil
	})
}

// EndCurrentSession closes the open session at override, or now when override
// is nil. Without an open session nothing is written.
func (m *Manager) EndCurrentSession(override *time.Time) error {
	return m.update(func(doc *model.Document) error {
		if m.current == nil {
			return store.ErrSkipSave
		}

		end := m.now()
		if override != nil {
			end = util.Stamp(*override)
		}
		m.closeCurrent(end)
		return nil
	})
}

// MarkSubmitted stamps the submission time and closes the open session.
// Repeated calls overwrite the submission time.
func (m *Manager) MarkSubmitted() error {
	return m.update(func(doc *model.Document) error {
		now := m.now()
		doc.Timeline.Submitted = &now
		if m.current != nil {
			m.closeCurrent(now)
		}
		logger().Info("Submission recorded", util.F("at", now.Format(time.RFC3339)))
		return nil
	})
}

// Stats reloads the document and summarises it against the current time
func (m *Manager) Stats() model.Stats {
	return m.StatsAt(m.clock.Now())
}

// StatsAt reloads the document and summarises it against a fixed instant, so a
// report can use one "now" for every figure it prints
func (m *Manager) StatsAt(now time.Time) model.Stats {
	return ComputeStats(m.Data(), now)
}

// Data reloads the document and returns a copy for read-only use
func (m *Manager) Data() *model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, _, err := m.store.Snapshot()
	if err != nil {
		logger().Warn("Failed to persist fresh session state", util.F("error", err))
	}
	m.adopt(doc)
	return doc.Clone()
}

// CurrentSession returns a copy of the open session seen by the last call, or nil
func (m *Manager) CurrentSession() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// apply handles the parts of an activity that are specific to its kind
func (m *Manager) apply(doc *model.Document, activity model.Activity) error {
	switch a := activity.(type) {
	case model.FileChanged:
		doc.FilesModified.Add(a.Path)
	case model.Committed, model.ManualNote, model.Checkout:
		// boundary only
	default:
		return fmt.Errorf("unsupported activity type %T", activity)
	}
	return nil
}

func (m *Manager) touchTimeline(doc *model.Document, now time.Time) {
	if doc.Timeline.FirstActivity == nil {
		first := now
		doc.Timeline.FirstActivity = &first
	}
	last := now
	doc.Timeline.LastActivity = &last
}

// advance is the session boundary decision. A gap longer than the inactivity
// threshold ends the open session at its own last activity, not at now.
func (m *Manager) advance(doc *model.Document, now time.Time) {
	if m.current == nil {
		m.openSession(doc, now)
		return
	}

	gap := now.Sub(m.current.LastActivity)
	if gap > m.threshold {
		m.closeCurrent(m.current.LastActivity)
		m.openSession(doc, now)
		return
	}

	if now.Before(m.current.LastActivity) {
		now = m.current.LastActivity
	}
	m.current.Touch(now)
}

func (m *Manager) openSession(doc *model.Document, at time.Time) {
	sess := model.NewSession(len(doc.Sessions)+1, at)
	doc.Sessions = append(doc.Sessions, sess)
	m.current = sess
	logger().Info(fmt.Sprintf("Session %d started", sess.ID))
}

func (m *Manager) closeCurrent(end time.Time) {
	if m.current == nil {
		return
	}
	m.current.Close(end)
	logger().Info(fmt.Sprintf("Session %d ended (%d min)", m.current.ID, m.current.DurationMinutes))
	m.current = nil
}

// ComputeStats summarises a document. Open sessions count up to now.
func ComputeStats(doc *model.Document, now time.Time) model.Stats {
	active := 0
	for _, s := range doc.Sessions {
		active += s.LiveMinutes(now)
	}

	elapsed := 0
	if doc.Timeline.FirstActivity != nil && doc.Timeline.LastActivity != nil {
		elapsed = util.RoundMinutes(doc.Timeline.LastActivity.Sub(*doc.Timeline.FirstActivity))
	}

	return model.Stats{
		Sessions:       len(doc.Sessions),
		Commits:        len(doc.Commits),
		FilesModified:  doc.FilesModified.Len(),
		ActiveTime:     util.FormatMinutes(active),
		ActiveMinutes:  active,
		ElapsedTime:    util.FormatMinutes(elapsed),
		ElapsedMinutes: elapsed,
		Timeline:       doc.Clone().Timeline,
	}
}
