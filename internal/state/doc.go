// Package state holds the sync status shared between the reconciler and the UI.
//
// The reconciler reports every pull, push and mirrored mutation through
// Store.Update; the UI reads Store.Snapshot on each render. Failed updates keep
// the last good SyncResult and bump ConsecutiveFailures, so the status bar can
// show "offline" once the backend has failed twice in a row while the shelves
// themselves keep working from local state.
//
// Notice carries the short, non-blocking messages surfaced after a local
// mutation could not be mirrored ("saved locally, sync failed").
//
// Snapshots are copies; callers may hold them without locking.
package state
