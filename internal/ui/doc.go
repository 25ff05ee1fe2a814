// Package ui provides the Bubble Tea shelf browser for drift.
//
// # Views
//
//   - Shelves: the active shelf as a list beside a detail pane. Tab or 1/2/3
//     switch shelves, s cycles the sort order, w/c/f move the highlighted
//     book, p sets progress, r rates, x removes and n fetches a short note.
//   - Search: a catalog query line above the results. w/c/f (or enter) file
//     the highlighted result onto a shelf.
//   - Logs: the tail of drift's own JSON log, refreshed while following.
//
// # Data Flow
//
// The model never touches storage or the network directly. Everything goes
// through the Service interface, which app.App implements. Calls that may
// block run inside tea.Cmd functions and report back as messages; after
// each one the model re-reads a snapshot of the library and sync state.
//
// A tick (one second by default) also re-reads the snapshot so mirror
// notices and sync results from other goroutines show up in the header.
//
// # Preferences
//
// Theme, sort order and the last viewed shelf are written to the prefs file
// whenever they change.
package ui
