// Package backend provides an HTTP client for the drift library backend.
//
// # Overview
//
// The backend stores each user's shelves server-side and issues session
// tokens. Client covers the whole surface the app needs:
//
//   - library.go: LibraryService (snapshot, upsert, update, bulk sync, delete)
//   - auth.go: Register and Login, with input validated before any request
//   - notes.go: GenerateNote, cached per title and author
//   - discover.go: MoodSearch recommendations and MoodTags, the AI discovery
//     endpoints
//   - client.go: request plumbing shared by all of the above
//   - types.go: wire structures mirroring the backend's JSON
//
// # Endpoints
//
//   - GET    /api/v1/health
//   - POST   /api/v1/register, /api/v1/login
//   - GET    /api/v1/library/{user_id}
//   - POST   /api/v1/library
//   - PUT    /api/v1/library/{item_id}
//   - DELETE /api/v1/library/{item_id}
//   - POST   /api/v1/library/sync
//   - POST   /api/v1/generate-note
//   - POST   /api/v1/mood-search, /api/v1/mood-tags
//
// Authors travel as one comma-joined string and timestamps as naive UTC
// isoformat values; types.go converts both. The backend keeps no reading
// progress: PUT only changes shelf_type and every item reports progress 0,
// which is decoded as "no progress" so pulls never wipe local values.
//
// # Errors
//
// Every failed call returns *NetworkError (matching ErrNetwork) unless the
// backend answered 401 or 403, or no session was supplied, in which case the
// error is *NotAuthenticatedError (matching ErrNotAuthenticated). ErrorLabel
// maps any error onto a short label for metrics and log fields.
//
// Validation failures on registration or login input are reported as
// *shelf.ValidationError before the network is touched.
//
// # Thread Safety
//
// Client is safe for concurrent use. The note and mood caches are LRUs
// guarded by their own locks.
package backend
