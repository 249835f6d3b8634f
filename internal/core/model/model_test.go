package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func TestNewDocument(t *testing.T) {
	doc := NewDocument(t0, CandidateIdentity{ID: "c1", MachineID: "m1", Timezone: "UTC"})

	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, t0, doc.CreatedAt)
	assert.Equal(t, t0, doc.Timeline.RepoCloned)
	assert.Nil(t, doc.Timeline.FirstActivity)
	assert.Nil(t, doc.Timeline.Submitted)
	assert.NotNil(t, doc.Sessions)
	assert.NotNil(t, doc.Commits)
	assert.NotNil(t, doc.FilesModified)
	assert.Nil(t, doc.OpenSession())
	assert.Nil(t, doc.LastSession())
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession(1, t0)
	assert.True(t, s.IsOpen())
	assert.Equal(t, 1, s.EventCount)
	assert.Equal(t, t0, s.End())

	s.Touch(t0.Add(10 * time.Minute))
	assert.Equal(t, 2, s.EventCount)
	assert.Equal(t, t0.Add(10*time.Minute), s.LastActivity)
	assert.Equal(t, 10, s.LiveMinutes(t0.Add(10*time.Minute)))

	s.Close(t0.Add(42*time.Minute + 31*time.Second))
	assert.False(t, s.IsOpen())
	assert.Equal(t, 43, s.DurationMinutes)
	assert.Equal(t, 43, s.LiveMinutes(t0.Add(5*time.Hour)))
}

func TestSessionLiveMinutesClockSkew(t *testing.T) {
	s := NewSession(1, t0)
	assert.Equal(t, 0, s.LiveMinutes(t0.Add(-time.Hour)))
}

func TestDocumentOpenSession(t *testing.T) {
	doc := NewDocument(t0, CandidateIdentity{})
	closed := NewSession(1, t0)
	closed.Close(t0.Add(time.Minute))
	open := NewSession(2, t0.Add(time.Hour))
	doc.Sessions = append(doc.Sessions, closed, open)

	assert.Same(t, open, doc.OpenSession())
	assert.Same(t, open, doc.LastSession())
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := NewDocument(t0, CandidateIdentity{ID: "c"})
	first := t0.Add(time.Minute)
	doc.Timeline.FirstActivity = &first
	doc.Sessions = append(doc.Sessions, NewSession(1, t0))
	doc.Commits = append(doc.Commits, CommitRecord{Hash: "abc1234"})
	doc.FilesModified.Add("a.ts")

	clone := doc.Clone()
	clone.Sessions[0].EventCount = 99
	clone.Sessions[0].Close(t0)
	*clone.Timeline.FirstActivity = t0.Add(time.Hour)
	clone.Commits[0].Hash = "zzz"
	clone.FilesModified.Add("b.ts")

	assert.Equal(t, 1, doc.Sessions[0].EventCount)
	assert.True(t, doc.Sessions[0].IsOpen())
	assert.Equal(t, first, *doc.Timeline.FirstActivity)
	assert.Equal(t, "abc1234", doc.Commits[0].Hash)
	assert.Equal(t, 1, doc.FilesModified.Len())
}

func TestEnsureInitialized(t *testing.T) {
	doc := &Document{}
	doc.EnsureInitialized()
	assert.NotNil(t, doc.Sessions)
	assert.NotNil(t, doc.Commits)
	assert.NotNil(t, doc.FilesModified)

	doc = &Document{FilesModified: FileSet{"src/z.ts", "index.ts", "src/z.ts"}}
	doc.EnsureInitialized()
	assert.Equal(t, FileSet{"index.ts", "src/z.ts"}, doc.FilesModified)
	assert.True(t, doc.FilesModified.Contains("index.ts"))
}

func TestFileSet(t *testing.T) {
	var set FileSet

	assert.True(t, set.Add("src/b.ts"))
	assert.True(t, set.Add("src/a.ts"))
	assert.False(t, set.Add("src/a.ts"))
	assert.False(t, set.Add(""))

	assert.Equal(t, FileSet{"src/a.ts", "src/b.ts"}, set)
	assert.True(t, set.Contains("src/b.ts"))
	assert.False(t, set.Contains("src/c.ts"))
	assert.Equal(t, 2, set.Len())
}

func TestFileSetNormalize(t *testing.T) {
	set := FileSet{"b", "a", "b", "c", "a"}
	set.Normalize()
	assert.Equal(t, FileSet{"a", "b", "c"}, set)

	var empty FileSet
	empty.Normalize()
	assert.Empty(t, empty)
}

func TestParseActivityLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected Activity
	}{
		{name: "empty is manual", label: "", expected: ManualNote{Text: "manual"}},
		{name: "checkout hook", label: "checkout", expected: Checkout{}},
		{name: "commit hook", label: "commit", expected: Committed{}},
		{name: "tracker start marker", label: "_tracker_started", expected: ManualNote{Text: "_tracker_started"}},
		{name: "nested path", label: "src/game/main.ts", expected: FileChanged{Path: "src/game/main.ts"}},
		{name: "bare file name", label: "index.html", expected: FileChanged{Path: "index.html"}},
		{name: "dirty path is cleaned", label: "src//game/../main.ts", expected: FileChanged{Path: "src/main.ts"}},
		{name: "free text", label: "reading the brief", expected: ManualNote{Text: "reading the brief"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseActivityLabel(tt.label)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.expected.Kind(), got.Kind())
		})
	}
}

func TestActivityLabels(t *testing.T) {
	assert.Equal(t, "a.ts", FileChanged{Path: "a.ts"}.Label())
	assert.Equal(t, "commit", Committed{}.Label())
	assert.Equal(t, "commit abc1234", Committed{Hash: "abc1234"}.Label())
	assert.Equal(t, "note", ManualNote{Text: "note"}.Label())
	assert.Equal(t, "checkout", Checkout{}.Label())
	assert.Equal(t, "file_changed", KindFileChanged.String())
	assert.Equal(t, "unknown", ActivityKind(42).String())
}
