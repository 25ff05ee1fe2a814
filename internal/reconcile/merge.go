package reconcile

import (
	"strings"
	"time"

	"github.com/five82/drift/internal/shelf"
)

// MergeStats counts what a pull-merge did to the local collection.
type MergeStats struct {
	Inserted int // remote-only records added locally
	Updated  int // matched records refreshed in place
	Moved    int // matched records routed to the remote shelf
	Skipped  int // remote entries with an unknown shelf or empty id
}

// Touched is the number of local records the merge changed or added.
func (s MergeStats) Touched() int {
	return s.Inserted + s.Updated + s.Moved
}

// MergeRemoteIntoLocal folds a remote snapshot into a local collection and
// returns the merged result. Neither argument is modified.
//
//   - Remote-only records are inserted under their remote shelf.
//   - Matched records take the remote catalog metadata and server id; local
//     progress survives when the remote entry carries none.
//   - A matched record on a different shelf moves to the remote shelf.
//   - Local records absent from the snapshot are kept, synced or not.
func MergeRemoteIntoLocal(local shelf.Collection, remote shelf.RemoteSnapshot) shelf.Collection {
	merged, _ := merge(local, remote, time.Now().UTC())
	return merged
}

func merge(local shelf.Collection, remote shelf.RemoteSnapshot, now time.Time) (shelf.Collection, MergeStats) {
	out := local.Clone()
	var stats MergeStats

	for _, r := range dedupe(remote, &stats) {
		loc, found := out.Locate(r.ExternalID)
		if !found {
			out[r.Shelf] = append(out[r.Shelf], inserted(r, now))
			stats.Inserted++
			continue
		}

		rec := refreshed(loc.Record, r)
		if loc.Shelf == r.Shelf {
			out[r.Shelf][loc.Index] = rec
			stats.Updated++
			continue
		}
		out[loc.Shelf] = append(out[loc.Shelf][:loc.Index:loc.Index], out[loc.Shelf][loc.Index+1:]...)
		out[r.Shelf] = append(out[r.Shelf], rec)
		stats.Moved++
	}
	return out, stats
}

// dedupe drops unusable remote entries and collapses repeated ids, keeping
// the last entry for each id at the position of its first appearance.
func dedupe(remote shelf.RemoteSnapshot, stats *MergeStats) []shelf.RemoteRecord {
	out := make([]shelf.RemoteRecord, 0, len(remote))
	seen := make(map[string]int, len(remote))
	for _, r := range remote {
		r.ExternalID = strings.TrimSpace(r.ExternalID)
		if r.ExternalID == "" || !r.Shelf.Valid() {
			stats.Skipped++
			continue
		}
		if idx, ok := seen[r.ExternalID]; ok {
			out[idx] = r
			continue
		}
		seen[r.ExternalID] = len(out)
		out = append(out, r)
	}
	return out
}

func inserted(r shelf.RemoteRecord, now time.Time) shelf.BookRecord {
	rec := shelf.BookRecord{
		ExternalID:   r.ExternalID,
		Title:        r.Title,
		Authors:      append([]string(nil), r.Authors...),
		ThumbnailURL: r.ThumbnailURL,
		Rating:       ratingOf(r.Rating),
		AddedAt:      r.CreatedAt,
	}
	if r.ServerID > 0 {
		rec.ServerID = shelf.Int64(r.ServerID)
	}
	if r.Shelf == shelf.Current {
		rec.Progress = clampProgress(r.Progress)
	}
	if rec.AddedAt.IsZero() {
		rec.AddedAt = now
	}
	return rec
}

// refreshed applies remote metadata to a matched local record. Empty remote
// values never blank out local ones.
func refreshed(l shelf.BookRecord, r shelf.RemoteRecord) shelf.BookRecord {
	rec := l.Clone()
	if r.Title != "" {
		rec.Title = r.Title
	}
	if len(r.Authors) > 0 {
		rec.Authors = append([]string(nil), r.Authors...)
	}
	if r.ThumbnailURL != "" {
		rec.ThumbnailURL = r.ThumbnailURL
	}
	if r.ServerID > 0 {
		rec.ServerID = shelf.Int64(r.ServerID)
	}
	if rating := ratingOf(r.Rating); rating != nil {
		rec.Rating = rating
	}
	if r.Progress != nil {
		rec.Progress = clampProgress(r.Progress)
	}
	if r.Shelf != shelf.Current {
		rec.Progress = nil
	}
	if rec.AddedAt.IsZero() {
		rec.AddedAt = r.CreatedAt
	}
	return rec
}

// ratingOf copies a remote rating, discarding values outside 1..5.
func ratingOf(p *int) *int {
	if p == nil || *p < 1 || *p > 5 {
		return nil
	}
	v := *p
	return &v
}

func clampProgress(p *int) *int {
	if p == nil {
		return nil
	}
	v := min(max(*p, 0), 100)
	return &v
}
