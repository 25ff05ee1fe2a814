package shelf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Load(filepath.Join(t.TempDir(), "library.json"))
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func book(id, title string) BookRecord {
	return BookRecord{ExternalID: id, Title: title, Authors: []string{"Author " + id}}
}

func TestLoad_MissingFileYieldsEmptyShelves(t *testing.T) {
	s := newTestStore(t)
	snap := s.Snapshot()
	for _, n := range Names {
		assert.NotNil(t, snap[n], "shelf %s", n)
		assert.Empty(t, snap[n], "shelf %s", n)
	}
}

func TestLoad_MalformedFileYieldsEmptyShelves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"want": [ not json`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Snapshot().Len())
}

func TestLoad_WrongShapeYieldsEmptyShelves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte(`["want","current"]`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Snapshot().Len())
}

func TestLoad_EmptyPathFails(t *testing.T) {
	_, err := Load("  ")
	assert.Error(t, err)
}

func TestLoad_DropsDuplicatesAndBlankIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	doc := `{
  "want": [{"externalId": "b1", "title": "One"}, {"externalId": "", "title": "Blank"}],
  "current": [{"externalId": "b1", "title": "One again", "progress": 10}],
  "finished": [{"externalId": "b2", "title": "Two", "progress": 50}]
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	snap := s.Snapshot()
	require.Len(t, snap[Want], 1)
	assert.Empty(t, snap[Current])
	require.Len(t, snap[Finished], 1)
	assert.Nil(t, snap[Finished][0].Progress, "progress only survives on current")
}

func TestAdd_UniquenessAcrossShelves(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(book("b1", "One"), Want))

	err := s.Add(book("b1", "One"), Finished)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateInOtherShelf))

	var dup *DuplicateInOtherShelfError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, Want, dup.Shelf)

	loc, ok := s.Locate("b1")
	require.True(t, ok)
	assert.Equal(t, Want, loc.Shelf)
	assert.Equal(t, 1, s.Snapshot().Len())
}

func TestAdd_SameShelfIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(book("b1", "One"), Want))
	before := s.Snapshot()

	changed := book("b1", "Different title")
	require.NoError(t, s.Add(changed, Want))

	assert.Equal(t, before, s.Snapshot())
}

func TestAdd_SetsAddedAtAndClearsProgressOffCurrent(t *testing.T) {
	s := newTestStore(t)
	rec := book("b1", "One")
	rec.Progress = Int(30)
	require.NoError(t, s.Add(rec, Want))

	loc, ok := s.Locate("b1")
	require.True(t, ok)
	assert.Nil(t, loc.Record.Progress)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), loc.Record.AddedAt)
}

func TestAdd_ValidatesInput(t *testing.T) {
	s := newTestStore(t)

	err := s.Add(BookRecord{ExternalID: "b1", Title: "   "}, Want)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)

	err = s.Add(BookRecord{Title: "No id"}, Want)
	assert.True(t, errors.Is(err, ErrValidation))

	rec := book("b2", "Two")
	rec.Progress = Int(101)
	assert.True(t, errors.Is(s.Add(rec, Current), ErrValidation))

	assert.True(t, errors.Is(s.Add(book("b3", "Three"), Name("someday")), ErrValidation))
	assert.Equal(t, 0, s.Snapshot().Len())
}

func TestMove(t *testing.T) {
	s := newTestStore(t)
	rec := book("b1", "One")
	rec.Progress = Int(40)
	require.NoError(t, s.Add(rec, Current))

	require.NoError(t, s.Move("b1", Current, Current))
	loc, _ := s.Locate("b1")
	assert.Equal(t, Current, loc.Shelf)
	require.NotNil(t, loc.Record.Progress)

	require.NoError(t, s.Move("b1", Current, Finished))
	loc, _ = s.Locate("b1")
	assert.Equal(t, Finished, loc.Shelf)
	assert.Nil(t, loc.Record.Progress)

	err := s.Move("b1", Want, Current)
	assert.True(t, errors.Is(err, ErrNotFound))
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, Want, nf.Shelf)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	rec := book("b1", "One")
	rec.ServerID = Int64(9)
	require.NoError(t, s.Add(rec, Finished))

	removed, err := s.Remove("b1")
	require.NoError(t, err)
	require.NotNil(t, removed.ServerID)
	assert.Equal(t, int64(9), *removed.ServerID)
	assert.False(t, s.Contains("b1"))

	_, err = s.Remove("b1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSetProgress(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(book("b1", "One"), Current))
	require.NoError(t, s.Add(book("b2", "Two"), Want))

	require.NoError(t, s.SetProgress("b1", 55))
	loc, _ := s.Locate("b1")
	require.NotNil(t, loc.Record.Progress)
	assert.Equal(t, 55, *loc.Record.Progress)

	assert.True(t, errors.Is(s.SetProgress("b2", 10), ErrValidation))
	assert.True(t, errors.Is(s.SetProgress("b9", 10), ErrNotFound))
	assert.True(t, errors.Is(s.SetProgress("b1", -1), ErrValidation))
}

func TestSetRating(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(book("b1", "One"), Finished))

	require.NoError(t, s.SetRating("b1", Int(4)))
	loc, _ := s.Locate("b1")
	require.NotNil(t, loc.Record.Rating)
	assert.Equal(t, 4, *loc.Record.Rating)

	require.NoError(t, s.SetRating("b1", nil))
	loc, _ = s.Locate("b1")
	assert.Nil(t, loc.Record.Rating)

	assert.True(t, errors.Is(s.SetRating("b1", Int(6)), ErrValidation))
}

func TestSetServerIDsAndPending(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(book("b1", "One"), Want))
	require.NoError(t, s.Add(book("b2", "Two"), Finished))
	require.Len(t, s.Pending(), 2)

	n, err := s.SetServerIDs(map[string]int64{"b1": 3, "missing": 4})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "b2", pending[0].Record.ExternalID)
	assert.Equal(t, Finished, pending[0].Shelf)
}

func TestSetServerIDsLeavesSyncedRecordsAlone(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(book("b1", "One"), Want))
	_, err := s.SetServerIDs(map[string]int64{"b1": 3})
	require.NoError(t, err)

	n, err := s.SetServerIDs(map[string]int64{"b1": 9})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	loc, ok := s.Snapshot().Locate("b1")
	require.True(t, ok)
	require.NotNil(t, loc.Record.ServerID)
	assert.Equal(t, int64(3), *loc.Record.ServerID)
}

func TestMutationsWriteThrough(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(book("b1", "One"), Want))
	require.NoError(t, s.Move("b1", Want, Current))
	require.NoError(t, s.SetProgress("b1", 20))

	reloaded, err := Load(s.Path())
	require.NoError(t, err)
	loc, ok := reloaded.Locate("b1")
	require.True(t, ok)
	assert.Equal(t, Current, loc.Shelf)
	require.NotNil(t, loc.Record.Progress)
	assert.Equal(t, 20, *loc.Record.Progress)
}

func TestSaveLoadIsFixedPoint(t *testing.T) {
	s := newTestStore(t)
	rec := book("b1", "One & Two <Three>")
	rec.ThumbnailURL = "http://books.example/img?id=1&zoom=1"
	require.NoError(t, s.Add(rec, Current))
	require.NoError(t, s.SetProgress("b1", 70))
	require.NoError(t, s.Add(book("b2", "Two"), Want))
	_, err := s.SetServerIDs(map[string]int64{"b2": 12})
	require.NoError(t, err)

	first, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	reloaded, err := Load(s.Path())
	require.NoError(t, err)
	require.NoError(t, reloaded.Save())

	second, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestExportMatchesPersistedBlob(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(book("b1", "One"), Finished))

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))

	onDisk, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, string(onDisk), buf.String())
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(book("b1", "One"), Want))

	snap := s.Snapshot()
	snap[Want][0].Title = "mutated"
	snap[Want][0].Authors[0] = "mutated"

	loc, _ := s.Locate("b1")
	assert.Equal(t, "One", loc.Record.Title)
	assert.Equal(t, "Author b1", loc.Record.Authors[0])
}

func TestUniquenessInvariantUnderOperationSequence(t *testing.T) {
	s := newTestStore(t)
	ops := []func() error{
		func() error { return s.Add(book("a", "A"), Want) },
		func() error { return s.Add(book("b", "B"), Current) },
		func() error { return s.Add(book("a", "A"), Finished) },
		func() error { return s.Move("a", Want, Finished) },
		func() error { return s.Add(book("a", "A"), Want) },
		func() error { return s.Move("b", Current, Want) },
		func() error { return s.Move("b", Current, Want) },
		func() error { return s.Add(book("c", "C"), Finished) },
		func() error { return s.Move("c", Finished, Want) },
		func() error { _, err := s.Remove("b"); return err },
		func() error { return s.Add(book("b", "B"), Finished) },
	}
	for i, op := range ops {
		_ = op()
		seen := map[string]Name{}
		for _, n := range Names {
			for _, rec := range s.Snapshot()[n] {
				prev, dup := seen[rec.ExternalID]
				require.False(t, dup, "step %d: %s on both %s and %s", i, rec.ExternalID, prev, n)
				seen[rec.ExternalID] = n
			}
		}
	}
}
