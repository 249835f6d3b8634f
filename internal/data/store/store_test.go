package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/penwyp/go-worktime-tracker/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func fixedIdentity() model.CandidateIdentity {
	return model.CandidateIdentity{ID: "candidate-1", MachineID: "0123456789abcdef", Timezone: "Europe/Istanbul"}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".tracker-session.json")
	s := New(path, Options{
		Clock:    util.NewManualClock(testStart),
		Identity: fixedIdentity,
	})
	return s, path
}

func populatedDocument() *model.Document {
	doc := model.NewDocument(testStart, fixedIdentity())
	first := testStart.Add(time.Minute)
	doc.Timeline.FirstActivity = &first
	doc.Timeline.LastActivity = &first
	sess := model.NewSession(1, first)
	doc.Sessions = append(doc.Sessions, sess)
	doc.Commits = append(doc.Commits, model.CommitRecord{Hash: "abc1234", Message: "init", Timestamp: first})
	doc.FilesModified.Add("src/main.ts")
	return doc
}

func TestLoadMissingFileCreatesFresh(t *testing.T) {
	s, path := newTestStore(t)

	doc, res := s.Load()
	assert.Equal(t, StatusCreated, res.Status)
	assert.True(t, res.Fresh())
	assert.Equal(t, "candidate-1", doc.Candidate.ID)
	assert.Equal(t, testStart, doc.Timeline.RepoCloned)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "Load alone must not write")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	doc := populatedDocument()

	require.NoError(t, s.Save(doc))
	assert.Len(t, doc.Checksum, 16)

	loaded, res := s.Load()
	require.Equal(t, StatusLoaded, res.Status, "reason: %v", res.Reason)
	assert.Nil(t, res.Reason)
	assert.Equal(t, doc.Checksum, loaded.Checksum)
	assert.Equal(t, doc.Candidate, loaded.Candidate)
	require.Len(t, loaded.Sessions, 1)
	assert.Equal(t, doc.Sessions[0].StartedAt, loaded.Sessions[0].StartedAt)
	assert.Nil(t, loaded.Sessions[0].EndedAt)
	assert.Equal(t, doc.Commits, loaded.Commits)
	assert.Equal(t, model.FileSet{"src/main.ts"}, loaded.FilesModified)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{`"_version"`, `"_createdAt"`, `"candidate"`, `"machineId"`, `"timeline"`,
		`"repoCloned"`, `"firstActivity"`, `"submitted": null`, `"sessions"`, `"endedAt": null`,
		`"durationMinutes"`, `"eventCount"`, `"commits"`, `"filesModified"`, `"_checksum"`} {
		assert.Contains(t, string(raw), key)
	}
}

func TestLoadDetectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(string) string
	}{
		{
			name: "edited duration",
			mutate: func(raw string) string {
				return strings.Replace(raw, `"durationMinutes": 0`, `"durationMinutes": 240`, 1)
			},
		},
		{
			name: "edited candidate",
			mutate: func(raw string) string {
				return strings.Replace(raw, "candidate-1", "candidate-2", 1)
			},
		},
		{
			name: "removed file",
			mutate: func(raw string) string {
				return strings.Replace(raw, `"src/main.ts"`, ``, 1)
			},
		},
		{
			name: "stripped checksum",
			mutate: func(raw string) string {
				idx := strings.Index(raw, `"_checksum"`)
				return raw[:idx] + `"_checksum": ""` + "\n}\n"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, path := newTestStore(t)
			require.NoError(t, s.Save(populatedDocument()))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path, []byte(tt.mutate(string(raw))), 0644))

			doc, res := s.Load()
			assert.Equal(t, StatusReset, res.Status)
			assert.Error(t, res.Reason)
			assert.Empty(t, doc.Sessions)
			assert.Empty(t, doc.Commits)
			assert.Nil(t, doc.Timeline.FirstActivity)
		})
	}
}

func TestLoadCorruptFile(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	doc, res := s.Load()
	assert.Equal(t, StatusReset, res.Status)
	assert.True(t, errors.Is(res.Reason, ErrCorrupt))
	assert.NotNil(t, doc)
}

func TestVerify(t *testing.T) {
	doc := populatedDocument()
	assert.ErrorIs(t, Verify(doc, "salt"), ErrMissingChecksum)

	sum, err := Checksum(doc, "salt")
	require.NoError(t, err)
	doc.Checksum = sum
	assert.NoError(t, Verify(doc, "salt"))
	assert.ErrorIs(t, Verify(doc, "other-salt"), ErrChecksumMismatch)

	doc.Sessions[0].EventCount++
	assert.ErrorIs(t, Verify(doc, "salt"), ErrChecksumMismatch)
}

func TestChecksumIgnoresStoredChecksum(t *testing.T) {
	doc := populatedDocument()
	a, err := Checksum(doc, "salt")
	require.NoError(t, err)

	doc.Checksum = "ffffffffffffffff"
	b, err := Checksum(doc, "salt")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUpdatePersistsMutation(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Update(func(doc *model.Document, res LoadResult) error {
		assert.Equal(t, StatusCreated, res.Status)
		doc.FilesModified.Add("a.ts")
		return nil
	})
	require.NoError(t, err)

	err = s.Update(func(doc *model.Document, res LoadResult) error {
		assert.Equal(t, StatusLoaded, res.Status)
		assert.True(t, doc.FilesModified.Contains("a.ts"))
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateSkipSave(t *testing.T) {
	s, path := newTestStore(t)

	require.NoError(t, s.Update(func(doc *model.Document, res LoadResult) error {
		return ErrSkipSave
	}))
	_, err := os.Stat(path)
	require.NoError(t, err, "fresh document is persisted even when skipping")

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Update(func(doc *model.Document, res LoadResult) error {
		doc.FilesModified.Add("ignored.ts")
		return ErrSkipSave
	}))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdatePropagatesCallbackError(t *testing.T) {
	s, path := newTestStore(t)
	boom := errors.New("boom")

	err := s.Update(func(doc *model.Document, res LoadResult) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveFailsOnUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	s := New(filepath.Join(blocker, "state.json"), Options{Identity: fixedIdentity})
	err := s.Save(populatedDocument())
	assert.Error(t, err)
}

func TestSnapshotReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Save(populatedDocument()))

	snap, res, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, res.Status)
	snap.Sessions[0].EventCount = 500

	again, _, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, again.Sessions[0].EventCount)
}

func TestFileLockerSerialisesUpdates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".tracker-session.json")
	lockPath := filepath.Join(dir, ".tracker", "session.lock")

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := New(path, Options{Locker: NewFileLocker(lockPath, 10*time.Second), Identity: fixedIdentity})
			err := s.Update(func(doc *model.Document, res LoadResult) error {
				doc.Commits = append(doc.Commits, model.CommitRecord{Hash: "h"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	doc, res := New(path, Options{}).Load()
	require.Equal(t, StatusLoaded, res.Status)
	assert.Len(t, doc.Commits, workers)
}

func TestFileLockerTimeout(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "session.lock")
	holder := NewFileLocker(lockPath, time.Second)
	unlock, err := holder.Lock()
	require.NoError(t, err)
	defer unlock()

	waiter := NewFileLocker(lockPath, 100*time.Millisecond)
	_, err = waiter.Lock()
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestLoadStatusString(t *testing.T) {
	assert.Equal(t, "loaded", StatusLoaded.String())
	assert.Equal(t, "created", StatusCreated.String())
	assert.Equal(t, "reset", StatusReset.String())
	assert.Equal(t, "unknown", LoadStatus(9).String())
}

func TestLoadSortsFilesWrittenOutOfOrder(t *testing.T) {
	s, _ := newTestStore(t)

	doc := populatedDocument()
	doc.FilesModified = model.FileSet{"src/z.ts", "index.ts", "src/a.ts"}
	require.NoError(t, s.Save(doc))

	loaded, res := s.Load()
	require.Equal(t, StatusLoaded, res.Status)
	assert.Equal(t, model.FileSet{"index.ts", "src/a.ts", "src/z.ts"}, loaded.FilesModified)
	assert.True(t, loaded.FilesModified.Contains("src/a.ts"))
	assert.False(t, loaded.FilesModified.Add("index.ts"))
}
