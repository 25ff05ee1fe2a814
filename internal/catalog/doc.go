// Package catalog searches the public Google Books volumes endpoint.
//
// Requests are paced by a token-bucket limiter and results are kept in a
// small LRU keyed by query and result count. There is no retry: a failed
// search is reported to the caller, which shows an empty state.
package catalog
