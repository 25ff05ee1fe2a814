// Package app is drift's composition root.
//
// Open loads configuration (after any .env file), then builds the pieces in
// dependency order: logger, shelf store, backend and catalog clients, sync
// status, metrics and the reconciler. A saved session is picked up so a
// restart stays signed in.
//
// App methods are the operations both front ends share. Each shelf mutation
// goes to the local store first and is then mirrored to the backend when a
// session exists. Store contract errors (unknown book, duplicate in another
// shelf, invalid input) are returned to the caller. Mirror failures are not;
// they surface as the sync notice instead, so local edits never fail because
// the network did.
//
// Login and Register persist the session and run the once-per-login sync.
// A failed sync does not undo the sign-in and is reported in
// LoginResult.SyncErr.
//
// Run wires an App into the Bubble Tea UI and blocks until the user quits.
package app
