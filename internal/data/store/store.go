// Package store persists the tracker state document. The file on disk is the
// only thing shared between tracker invocations: every hook call and every
// watcher event reloads it, mutates it and rewrites it in full.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/penwyp/go-worktime-tracker/internal/core/constants"
	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/penwyp/go-worktime-tracker/internal/util"
)

// ErrSkipSave can be returned from an Update callback when nothing changed
var ErrSkipSave = errors.New("skip save")

// LoadStatus describes where a loaded document came from
type LoadStatus int

const (
	// StatusLoaded means an existing, verified document was read
	StatusLoaded LoadStatus = iota
	// StatusCreated means no document existed and a fresh one was created
	StatusCreated
	// StatusReset means the existing document was corrupt or tampered with and was replaced
	StatusReset
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusCreated:
		return "created"
	case StatusReset:
		return "reset"
	default:
		return "unknown"
	}
}

// LoadResult reports how Load obtained the document
type LoadResult struct {
	Status LoadStatus
	// Reason is set when Status is StatusReset
	Reason error
}

// Fresh reports whether the document was created during this load
func (r LoadResult) Fresh() bool {
	return r.Status != StatusLoaded
}

// Options configures a Store
type Options struct {
	Salt     string
	Locker   Locker
	Clock    util.Clock
	Identity func() model.CandidateIdentity
}

// Store reads and writes the state document
type Store struct {
	path     string
	salt     string
	locker   Locker
	clock    util.Clock
	identity func() model.CandidateIdentity
}

func logger() util.LoggerInterface {
	return util.Component("store")
}

// New creates a store for the state file at path
func New(path string, opts Options) *Store {
	if opts.Salt == "" {
		opts.Salt = constants.ChecksumSalt
	}
	if opts.Locker == nil {
		opts.Locker = NopLocker{}
	}
	if opts.Clock == nil {
		opts.Clock = util.SystemClock{}
	}
	if opts.Identity == nil {
		opts.Identity = NewCandidateIdentity
	}

	return &Store{
		path:     path,
		salt:     opts.Salt,
		locker:   opts.Locker,
		clock:    opts.Clock,
		identity: opts.Identity,
	}
}

// NewCandidateIdentity generates the identity stamped into a fresh document
func NewCandidateIdentity() model.CandidateIdentity {
	return model.CandidateIdentity{
		ID:        uuid.New().String(),
		MachineID: util.MachineFingerprint(),
		Timezone:  util.LocalTimezoneName(),
	}
}

// Path returns the state file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. It never fails: a missing file yields a fresh
// document, and an unreadable, unparsable or tampered file is discarded in
// favour of a fresh one. Fresh documents are not written; callers decide.
func (s *Store) Load() (*model.Document, LoadResult) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.fresh(), LoadResult{Status: StatusCreated}
		}
		logger().Warn("Cannot read state file, starting fresh", util.F("path", s.path), util.F("error", err))
		return s.fresh(), LoadResult{Status: StatusReset, Reason: err}
	}

	var doc model.Document
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		reason := fmt.Errorf("%w: %v", ErrCorrupt, err)
		logger().Warn("State file is corrupt, starting fresh", util.F("path", s.path), util.F("error", err))
		return s.fresh(), LoadResult{Status: StatusReset, Reason: reason}
	}

	if err := Verify(&doc, s.salt); err != nil {
		logger().Warn("State file checksum mismatch, starting fresh", util.F("path", s.path), util.F("error", err))
		return s.fresh(), LoadResult{Status: StatusReset, Reason: err}
	}

	doc.EnsureInitialized()
	return &doc, LoadResult{Status: StatusLoaded}
}

func (s *Store) fresh() *model.Document {
	return model.NewDocument(util.Stamp(s.clock.Now()), s.identity())
}

// Save recomputes the checksum and atomically replaces the state file
func (s *Store) Save(doc *model.Document) error {
	sum, err := Checksum(doc, s.salt)
	if err != nil {
		return err
	}
	doc.Checksum = sum

	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state file: %w", err)
	}

	if err := WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to save state file: %w", err)
	}

	logger().Debug("State file saved", util.F("path", s.path), util.F("sessions", len(doc.Sessions)))
	return nil
}

// Update runs one locked load-mutate-save cycle. A fresh document is persisted
// even when fn returns ErrSkipSave, so the first invocation always leaves a
// file behind. If the lock cannot be taken the cycle runs unlocked.
func (s *Store) Update(fn func(doc *model.Document, res LoadResult) error) error {
	unlock, err := s.locker.Lock()
	if err != nil {
		logger().Warn("Proceeding without state file lock", util.F("error", err))
		unlock = func() {}
	}
	defer unlock()

	doc, res := s.Load()

	fnErr := fn(doc, res)
	if fnErr != nil && !errors.Is(fnErr, ErrSkipSave) {
		return fnErr
	}
	if errors.Is(fnErr, ErrSkipSave) && !res.Fresh() {
		return nil
	}

	return s.Save(doc)
}

// Snapshot loads the document under the lock, persisting it when it was freshly
// created, and returns a copy for read-only use
func (s *Store) Snapshot() (*model.Document, LoadResult, error) {
	var (
		snapshot *model.Document
		result   LoadResult
	)
	err := s.Update(func(doc *model.Document, res LoadResult) error {
		snapshot = doc.Clone()
		result = res
		return ErrSkipSave
	})
	return snapshot, result, err
}

// WriteFileAtomic writes data to a temp file beside path and renames it into place
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}
