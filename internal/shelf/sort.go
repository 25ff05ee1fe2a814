package shelf

import (
	"fmt"
	"slices"
	"strings"
)

// SortKey orders a shelf for display. Stored order is always insertion order.
type SortKey string

const (
	SortAdded  SortKey = "added"
	SortTitle  SortKey = "title"
	SortAuthor SortKey = "author"
)

// ParseSortKey validates a sort key; empty means SortAdded.
func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case "":
		return SortAdded, nil
	case SortAdded, SortTitle, SortAuthor:
		return k, nil
	default:
		return "", &ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown sort key %q", raw)}
	}
}

// Next cycles through the sort keys.
func (k SortKey) Next() SortKey {
	switch k {
	case SortAdded:
		return SortTitle
	case SortTitle:
		return SortAuthor
	default:
		return SortAdded
	}
}

// Sorted returns a sorted copy of recs. Ties keep insertion order.
func Sorted(recs []BookRecord, key SortKey) []BookRecord {
	out := slices.Clone(recs)
	switch key {
	case SortTitle:
		slices.SortStableFunc(out, func(a, b BookRecord) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case SortAuthor:
		slices.SortStableFunc(out, func(a, b BookRecord) int {
			return strings.Compare(strings.ToLower(firstAuthor(a)), strings.ToLower(firstAuthor(b)))
		})
	default:
		slices.SortStableFunc(out, func(a, b BookRecord) int {
			return a.AddedAt.Compare(b.AddedAt)
		})
	}
	return out
}

func firstAuthor(r BookRecord) string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0]
}
