// Package shelf holds the local library: three fixed shelves of book records
// persisted as a single JSON document.
//
// # Invariants
//
// A given external id appears on at most one shelf. Add refuses to file a
// record that already lives on another shelf (DuplicateInOtherShelfError);
// callers use Move instead. Adding to the shelf a record already occupies is
// a no-op. Progress is only kept for records on the current shelf.
//
// # Persistence
//
// Every mutation is applied to a copy of the collection, written to a temp
// file next to the library and renamed into place before the in-memory state
// is replaced, so callers never observe a partial write. Load never fails on
// bad content: a missing or malformed document yields three empty shelves.
//
// The document layout is fixed:
//
//	{
//	  "want": [ ... ],
//	  "current": [ ... ],
//	  "finished": [ ... ]
//	}
//
// Saving a freshly loaded store reproduces the same bytes.
//
// # Concurrency
//
// Store serializes every operation behind one mutex. The reconciler reads a
// Snapshot, merges outside the lock and commits with Replace; a user edit that
// lands between those two calls is overwritten by the merge.
package shelf
