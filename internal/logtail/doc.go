// Package logtail reads the tail of drift's log file for the TUI log view.
//
// Read returns the last N non-empty lines using a fixed ring buffer, so large
// logs are never held in memory. Tail goes one step further and decodes each
// line as a zap JSON entry; lines written by something other than the logger
// (a panic trace, say) are kept verbatim in Entry.Raw.
package logtail
