package model

import (
	"time"

	"github.com/penwyp/go-worktime-tracker/internal/core/constants"
)

// CandidateIdentity is generated once when the state file is first created
type CandidateIdentity struct {
	ID        string `json:"id"`
	MachineID string `json:"machineId"`
	Timezone  string `json:"timezone"`
}

// Timeline holds the coarse milestones of the exercise
type Timeline struct {
	RepoCloned    time.Time  `json:"repoCloned"`
	FirstActivity *time.Time `json:"firstActivity"`
	LastActivity  *time.Time `json:"lastActivity"`
	Submitted     *time.Time `json:"submitted"`
}

// CommitRecord is an append-only entry written by the commit hook
type CommitRecord struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Document is the persisted state file. Field names are part of the on-disk
// contract and must not change.
type Document struct {
	Version       string            `json:"_version"`
	CreatedAt     time.Time         `json:"_createdAt"`
	Candidate     CandidateIdentity `json:"candidate"`
	Timeline      Timeline          `json:"timeline"`
	Sessions      []*Session        `json:"sessions"`
	Commits       []CommitRecord    `json:"commits"`
	FilesModified FileSet           `json:"filesModified"`
	Checksum      string            `json:"_checksum,omitempty"`
}

// NewDocument creates an empty document for a fresh candidate
func NewDocument(now time.Time, candidate CandidateIdentity) *Document {
	return &Document{
		Version:   constants.DocumentVersion,
		CreatedAt: now,
		Candidate: candidate,
		Timeline: Timeline{
			RepoCloned: now,
		},
		Sessions:      []*Session{},
		Commits:       []CommitRecord{},
		FilesModified: FileSet{},
	}
}

// EnsureInitialized replaces nil collections left by decoding "null" or missing
// keys, and restores the sorted order FileSet lookups depend on
func (d *Document) EnsureInitialized() {
	if d.Sessions == nil {
		d.Sessions = []*Session{}
	}
	if d.Commits == nil {
		d.Commits = []CommitRecord{}
	}
	if d.FilesModified == nil {
		d.FilesModified = FileSet{}
	}
	d.FilesModified.Normalize()
}

// OpenSession returns the session without an end time, or nil
func (d *Document) OpenSession() *Session {
	for _, s := range d.Sessions {
		if s != nil && s.IsOpen() {
			return s
		}
	}
	return nil
}

// LastSession returns the most recently started session, or nil
func (d *Document) LastSession() *Session {
	if len(d.Sessions) == 0 {
		return nil
	}
	return d.Sessions[len(d.Sessions)-1]
}

// Clone returns a deep copy that callers may read without affecting the original
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	out := *d
	out.Timeline = Timeline{
		RepoCloned:    d.Timeline.RepoCloned,
		FirstActivity: cloneTime(d.Timeline.FirstActivity),
		LastActivity:  cloneTime(d.Timeline.LastActivity),
		Submitted:     cloneTime(d.Timeline.Submitted),
	}

	out.Sessions = make([]*Session, 0, len(d.Sessions))
	for _, s := range d.Sessions {
		if s == nil {
			continue
		}
		cp := *s
		cp.EndedAt = cloneTime(s.EndedAt)
		out.Sessions = append(out.Sessions, &cp)
	}

	out.Commits = append([]CommitRecord{}, d.Commits...)
	out.FilesModified = append(FileSet{}, d.FilesModified...)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
