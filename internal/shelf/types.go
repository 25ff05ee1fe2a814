package shelf

import (
	"fmt"
	"strings"
	"time"
)

// Name identifies one of the three fixed shelves.
type Name string

const (
	Want     Name = "want"
	Current  Name = "current"
	Finished Name = "finished"
)

// Names lists every shelf in display and persistence order.
var Names = []Name{Want, Current, Finished}

// ParseShelf validates a shelf name, accepting surrounding whitespace and any case.
func ParseShelf(raw string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(raw)))
	if n.Valid() {
		return n, nil
	}
	return "", &ValidationError{Field: "shelf", Reason: fmt.Sprintf("unknown shelf %q", raw)}
}

// Valid reports whether n is one of the known shelves.
func (n Name) Valid() bool {
	switch n {
	case Want, Current, Finished:
		return true
	default:
		return false
	}
}

// Label returns the human label used by the UI.
func (n Name) Label() string {
	switch n {
	case Want:
		return "Want to Read"
	case Current:
		return "Currently Reading"
	case Finished:
		return "Finished"
	default:
		return string(n)
	}
}

// BookRecord is one catalog item filed onto a shelf.
type BookRecord struct {
	ExternalID   string    `json:"externalId" validate:"required,max=50"`
	ServerID     *int64    `json:"serverId"`
	Title        string    `json:"title" validate:"required,max=255"`
	Authors      []string  `json:"authors"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty" validate:"omitempty,max=500"`
	Progress     *int      `json:"progress"`
	Rating       *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	AddedAt      time.Time `json:"addedAt"`
}

// Synced reports whether the backend has assigned this record an identifier.
func (r BookRecord) Synced() bool {
	return r.ServerID != nil
}

// AuthorLine joins authors for display.
func (r BookRecord) AuthorLine() string {
	if len(r.Authors) == 0 {
		return "Unknown author"
	}
	return strings.Join(r.Authors, ", ")
}

// Clone returns a deep copy that shares no pointers with r.
func (r BookRecord) Clone() BookRecord {
	dup := r
	if r.Authors != nil {
		dup.Authors = append([]string(nil), r.Authors...)
	}
	if r.ServerID != nil {
		v := *r.ServerID
		dup.ServerID = &v
	}
	if r.Progress != nil {
		v := *r.Progress
		dup.Progress = &v
	}
	if r.Rating != nil {
		v := *r.Rating
		dup.Rating = &v
	}
	return dup
}

// Collection maps each shelf to its records in insertion order.
type Collection map[Name][]BookRecord

// NewCollection returns the default collection with three empty shelves.
func NewCollection() Collection {
	c := make(Collection, len(Names))
	for _, n := range Names {
		c[n] = []BookRecord{}
	}
	return c
}

// Clone deep-copies the collection, always yielding all three shelves.
func (c Collection) Clone() Collection {
	dup := NewCollection()
	for _, n := range Names {
		for _, rec := range c[n] {
			dup[n] = append(dup[n], rec.Clone())
		}
	}
	return dup
}

// Len counts records across all shelves.
func (c Collection) Len() int {
	total := 0
	for _, n := range Names {
		total += len(c[n])
	}
	return total
}

// Location pinpoints a record inside a collection.
type Location struct {
	Shelf  Name
	Index  int
	Record BookRecord
}

// Locate finds the record with the given external id.
func (c Collection) Locate(externalID string) (Location, bool) {
	for _, n := range Names {
		for i, rec := range c[n] {
			if rec.ExternalID == externalID {
				return Location{Shelf: n, Index: i, Record: rec}, true
			}
		}
	}
	return Location{}, false
}

// Pending returns copies of every record that has no server id.
func (c Collection) Pending() []PendingItem {
	var out []PendingItem
	for _, n := range Names {
		for _, rec := range c[n] {
			if !rec.Synced() {
				out = append(out, PendingItem{Shelf: n, Record: rec.Clone()})
			}
		}
	}
	return out
}

// PendingItem is a local-only record together with the shelf it sits on.
type PendingItem struct {
	Shelf  Name
	Record BookRecord
}

// Int64 and Int return pointers for optional fields.
func Int64(v int64) *int64 { return &v }

func Int(v int) *int { return &v }

// RemoteRecord is one shelf entry as the backend reports it.
type RemoteRecord struct {
	ServerID     int64
	Shelf        Name
	ExternalID   string
	Title        string
	Authors      []string
	ThumbnailURL string
	Progress     *int
	Rating       *int
	CreatedAt    time.Time
}

// RemoteSnapshot is the backend's flat view of one user's library. It is only
// used while reconciling and is never persisted.
type RemoteSnapshot []RemoteRecord
