package shelf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Store owns the shelf collection and writes it through to disk after
// every mutation. All methods are safe for concurrent use; mutations are
// applied in the order their callers acquire the lock.
type Store struct {
	mu   sync.Mutex
	path string
	coll Collection
	now  func() time.Time
}

// persisted is the on-disk layout. Field order fixes the key order so that
// saving a freshly loaded collection reproduces the same bytes.
type persisted struct {
	Want     []BookRecord `json:"want"`
	Current  []BookRecord `json:"current"`
	Finished []BookRecord `json:"finished"`
}

// Load opens the collection stored at path. A missing or malformed file
// yields three empty shelves; only an unusable path is an error.
func Load(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("library path is empty")
	}
	s := &Store{path: path, now: time.Now}

	data, err := os.ReadFile(path)
	if err != nil {
		// Missing and unreadable files both count as an empty library.
		s.coll = NewCollection()
		return s, nil
	}
	s.coll = decode(data)
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Save flushes the current collection to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.coll)
}

// Snapshot returns a deep copy of the collection.
func (s *Store) Snapshot() Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Clone()
}

// Contains reports whether any shelf holds externalID.
func (s *Store) Contains(externalID string) bool {
	_, ok := s.Locate(externalID)
	return ok
}

// Locate finds the shelf and record for externalID.
func (s *Store) Locate(externalID string) (Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.coll.Locate(externalID)
	if ok {
		loc.Record = loc.Record.Clone()
	}
	return loc, ok
}

// Pending lists records that have not been assigned a server id.
func (s *Store) Pending() []PendingItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Pending()
}

// Add files rec under target. Adding to the shelf the record already
// occupies is a no-op; adding a record shelved elsewhere fails with
// DuplicateInOtherShelfError.
func (s *Store) Add(rec BookRecord, target Name) error {
	if !target.Valid() {
		return &ValidationError{Field: "shelf", Reason: fmt.Sprintf("unknown shelf %q", target)}
	}
	rec = rec.Clone()
	if err := Validate(&rec); err != nil {
		return err
	}
	return s.mutate(func(c Collection) (bool, error) {
		if loc, ok := c.Locate(rec.ExternalID); ok {
			if loc.Shelf == target {
				return false, nil
			}
			return false, &DuplicateInOtherShelfError{ID: rec.ExternalID, Shelf: loc.Shelf}
		}
		if rec.AddedAt.IsZero() {
			rec.AddedAt = s.now().UTC()
		}
		if target != Current {
			rec.Progress = nil
		}
		c[target] = append(c[target], rec)
		return true, nil
	})
}

// Remove deletes externalID from whichever shelf holds it and returns the
// removed record.
func (s *Store) Remove(externalID string) (BookRecord, error) {
	var removed BookRecord
	err := s.mutate(func(c Collection) (bool, error) {
		loc, ok := c.Locate(externalID)
		if !ok {
			return false, &NotFoundError{ID: externalID}
		}
		removed = loc.Record.Clone()
		c[loc.Shelf] = deleteAt(c[loc.Shelf], loc.Index)
		return true, nil
	})
	return removed, err
}

// Move transfers externalID from one shelf to another. Moving onto the same
// shelf is a no-op. Progress survives only on the current shelf.
func (s *Store) Move(externalID string, from, to Name) error {
	for _, n := range []Name{from, to} {
		if !n.Valid() {
			return &ValidationError{Field: "shelf", Reason: fmt.Sprintf("unknown shelf %q", n)}
		}
	}
	if from == to {
		return nil
	}
	return s.mutate(func(c Collection) (bool, error) {
		idx := indexOf(c[from], externalID)
		if idx < 0 {
			return false, &NotFoundError{ID: externalID, Shelf: from}
		}
		rec := c[from][idx]
		c[from] = deleteAt(c[from], idx)
		if to != Current {
			rec.Progress = nil
		}
		c[to] = append(c[to], rec)
		return true, nil
	})
}

// SetProgress records a reading percentage for a book on the current shelf.
func (s *Store) SetProgress(externalID string, pct int) error {
	if err := checkProgress(pct); err != nil {
		return err
	}
	return s.mutate(func(c Collection) (bool, error) {
		idx := indexOf(c[Current], externalID)
		if idx < 0 {
			if _, ok := c.Locate(externalID); ok {
				return false, &ValidationError{Field: "progress", Reason: "only books on the current shelf track progress"}
			}
			return false, &NotFoundError{ID: externalID, Shelf: Current}
		}
		c[Current][idx].Progress = Int(pct)
		return true, nil
	})
}

// SetRating records a 1-5 rating, or clears it when rating is nil.
func (s *Store) SetRating(externalID string, rating *int) error {
	if rating != nil {
		if err := checkRating(*rating); err != nil {
			return err
		}
	}
	return s.mutate(func(c Collection) (bool, error) {
		loc, ok := c.Locate(externalID)
		if !ok {
			return false, &NotFoundError{ID: externalID}
		}
		if rating == nil {
			c[loc.Shelf][loc.Index].Rating = nil
		} else {
			c[loc.Shelf][loc.Index].Rating = Int(*rating)
		}
		return true, nil
	})
}

// SetServerIDs tags records with backend identifiers in a single flush.
// Unknown ids and records that already carry a server id are left alone; the
// number of records updated is returned.
func (s *Store) SetServerIDs(ids map[string]int64) (int, error) {
	updated := 0
	err := s.mutate(func(c Collection) (bool, error) {
		for id, sid := range ids {
			loc, ok := c.Locate(id)
			if !ok || c[loc.Shelf][loc.Index].Synced() {
				continue
			}
			c[loc.Shelf][loc.Index].ServerID = Int64(sid)
			updated++
		}
		return updated > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// Replace swaps in a whole collection, as produced by a merge.
func (s *Store) Replace(next Collection) error {
	return s.mutate(func(c Collection) (bool, error) {
		normalized := normalize(next)
		for _, n := range Names {
			c[n] = normalized[n]
		}
		return true, nil
	})
}

// Export writes the persisted representation of the collection to w.
func (s *Store) Export(w io.Writer) error {
	s.mu.Lock()
	data, err := encode(s.coll)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// mutate applies fn to a copy of the collection and commits it only after
// the copy has been written to disk.
func (s *Store) mutate(fn func(Collection) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.coll.Clone()
	changed, err := fn(next)
	if err != nil || !changed {
		return err
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.coll = next
	return nil
}

func (s *Store) write(c Collection) error {
	data, err := encode(c)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create library dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return fmt.Errorf("create temp library: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write library: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close library: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace library: %w", err)
	}
	return nil
}

func encode(c Collection) ([]byte, error) {
	p := persisted{
		Want:     nonNil(c[Want]),
		Current:  nonNil(c[Current]),
		Finished: nonNil(c[Finished]),
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode library: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) Collection {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return NewCollection()
	}
	return normalize(Collection{Want: p.Want, Current: p.Current, Finished: p.Finished})
}

// normalize drops records without an identifier and later duplicates of an
// identifier already seen, so the one-shelf-per-book invariant always holds.
func normalize(c Collection) Collection {
	out := NewCollection()
	seen := make(map[string]struct{}, c.Len())
	for _, n := range Names {
		for _, rec := range c[n] {
			id := strings.TrimSpace(rec.ExternalID)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			rec = rec.Clone()
			rec.ExternalID = id
			if n != Current {
				rec.Progress = nil
			}
			out[n] = append(out[n], rec)
		}
	}
	return out
}

func nonNil(recs []BookRecord) []BookRecord {
	if recs == nil {
		return []BookRecord{}
	}
	return recs
}

func indexOf(recs []BookRecord, externalID string) int {
	for i, rec := range recs {
		if rec.ExternalID == externalID {
			return i
		}
	}
	return -1
}

func deleteAt(recs []BookRecord, idx int) []BookRecord {
	out := make([]BookRecord, 0, len(recs)-1)
	out = append(out, recs[:idx]...)
	return append(out, recs[idx+1:]...)
}
