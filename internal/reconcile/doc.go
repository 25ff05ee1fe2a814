// Package reconcile keeps the local shelf store and the backend library in
// step.
//
// Three flows are supported:
//
//   - Pull: fetch the remote snapshot and merge it into the local store.
//   - PushLocalOnly: upload records that have no server id yet, then pull.
//   - Mirror*: best-effort replay of a single local mutation.
//
// Login runs Pull followed by PushLocalOnly once per sign-in.
//
// # Merge rules
//
// MergeRemoteIntoLocal is pure. The remote side wins catalog metadata, the
// server id and the shelf a record sits on. Local progress is kept when the
// remote entry carries none, and progress is cleared on any shelf other than
// current. Records missing from the snapshot are never deleted locally, so a
// book removed on another device comes back until it is removed here too.
//
// # Failure handling
//
// Remote failures never shrink the local library. They are recorded in the
// state.Store (which drives the status bar), counted in Metrics and logged.
// Mirror failures are additionally surfaced as the "saved locally, sync
// failed" notice.
//
// # Concurrency
//
// A Reconciler holds one mutex across Pull, PushLocalOnly, Login and the
// mirror calls. A user mutation that lands between a pull's snapshot and its
// write is overwritten by the merge result.
package reconcile
