package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/five82/drift/internal/backend"
	"github.com/five82/drift/internal/shelf"
)

// fakeBackend is a tiny in-memory stand-in for the library service.
type fakeBackend struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]map[string]any
	calls  []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 100, items: make(map[int64]map[string]any)}
}

func (f *fakeBackend) seed(googleID, title, shelfType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.items[f.nextID] = map[string]any{
		"id": f.nextID, "user_id": 7, "google_books_id": googleID, "title": title,
		"authors": "Remote Author", "thumbnail": "", "shelf_type": shelfType,
		"progress": 0, "rating": nil, "created_at": "2024-01-01T10:00:00",
	}
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	log := func(r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
	}

	mux.HandleFunc("POST /api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		log(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":      "ok",
			"access_token": "token-7",
			"user":         map[string]any{"id": 7, "username": "reader", "email": "r@example.com"},
		})
	})
	mux.HandleFunc("GET /api/v1/library/{user}", func(w http.ResponseWriter, r *http.Request) {
		log(r)
		f.mu.Lock()
		list := make([]map[string]any, 0, len(f.items))
		for _, it := range f.items {
			list = append(list, it)
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"library": list})
	})
	mux.HandleFunc("POST /api/v1/library", func(w http.ResponseWriter, r *http.Request) {
		log(r)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.nextID++
		body["id"] = f.nextID
		// The service stores its column default rather than the sent value.
		body["progress"] = 0
		f.items[f.nextID] = body
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"message": "added", "item": body})
	})
	mux.HandleFunc("POST /api/v1/library/sync", func(w http.ResponseWriter, r *http.Request) {
		log(r)
		var body struct {
			Items []struct {
				ID         string `json:"id"`
				Shelf      string `json:"shelf"`
				VolumeInfo struct {
					Title string `json:"title"`
				} `json:"volumeInfo"`
			} `json:"items"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, it := range body.Items {
			f.seed(it.ID, it.VolumeInfo.Title, it.Shelf)
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "synced", "errors": 0})
	})
	mux.HandleFunc("PUT /api/v1/library/{id}", func(w http.ResponseWriter, r *http.Request) {
		log(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		if it, ok := f.items[id]; ok {
			it["shelf_type"] = body["shelf_type"]
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "updated"})
	})
	mux.HandleFunc("DELETE /api/v1/library/{id}", func(w http.ResponseWriter, r *http.Request) {
		log(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.mu.Lock()
		delete(f.items, id)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "deleted"})
	})
	mux.HandleFunc("POST /api/v1/generate-note", func(w http.ResponseWriter, r *http.Request) {
		log(r)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"vibe": fmt.Sprintf("%s by %s", body["title"], body["author"])})
	})
	mux.HandleFunc("POST /api/v1/mood-tags", func(w http.ResponseWriter, r *http.Request) {
		log(r)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "mood_tags": []string{"epic", "austere"}})
	})
	mux.HandleFunc("POST /api/v1/mood-search", func(w http.ResponseWriter, r *http.Request) {
		log(r)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "query": body["query"], "recommendations": "For " + body["query"] + ": Dune",
		})
	})
	return mux
}

func openTestApp(t *testing.T, apiBase string) (*App, string) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	config := fmt.Sprintf(`api_base = %q
library_path = %q
session_path = %q
log_dir = %q
request_timeout_seconds = 2
`, apiBase, filepath.Join(dir, "library.json"), filepath.Join(dir, "session.toml"), filepath.Join(dir, "logs"))
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	a, err := Open(Options{
		ConfigPath: configPath,
		PrefsPath:  filepath.Join(dir, "prefs.toml"),
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, configPath
}

func book(id, title string) shelf.BookRecord {
	return shelf.BookRecord{ExternalID: id, Title: title, Authors: []string{"Local Author"}, AddedAt: time.Now().UTC()}
}

func TestSignedOut_EditsStayLocal(t *testing.T) {
	fb := newFakeBackend()
	srv := httptest.NewServer(fb.handler())
	defer srv.Close()
	a, _ := openTestApp(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, a.AddBook(ctx, book("b1", "Local One"), shelf.Want))
	require.NoError(t, a.MoveBook(ctx, "b1", shelf.Current))
	require.NoError(t, a.SetProgress(ctx, "b1", 30))

	loc, ok := a.Library().Locate("b1")
	require.True(t, ok)
	assert.Equal(t, shelf.Current, loc.Shelf)
	assert.Equal(t, 30, *loc.Record.Progress)
	assert.Empty(t, fb.callLog(), "signed-out edits must not reach the backend")

	_, err := a.Sync(ctx)
	assert.ErrorIs(t, err, backend.ErrNotAuthenticated)
}

func TestStoreErrorsAreReturned(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend().handler())
	defer srv.Close()
	a, _ := openTestApp(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, a.AddBook(ctx, book("b1", "One"), shelf.Want))
	assert.ErrorIs(t, a.AddBook(ctx, book("b1", "One"), shelf.Finished), shelf.ErrDuplicateInOtherShelf)
	assert.ErrorIs(t, a.MoveBook(ctx, "missing", shelf.Want), shelf.ErrNotFound)
	assert.ErrorIs(t, a.RemoveBook(ctx, "missing"), shelf.ErrNotFound)
	assert.ErrorIs(t, a.SetProgress(ctx, "b1", 10), shelf.ErrValidation, "progress only applies on current")
}

func TestLogin_MergesAndUploadsPending(t *testing.T) {
	fb := newFakeBackend()
	fb.seed("r1", "Remote One", "finished")
	srv := httptest.NewServer(fb.handler())
	defer srv.Close()
	a, _ := openTestApp(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, a.AddBook(ctx, book("b1", "Local One"), shelf.Want))

	res, err := a.Login(ctx, backend.Credentials{Username: "reader", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, res.SyncErr)
	assert.Equal(t, 1, res.Sync.Uploaded)
	assert.Equal(t, 0, res.Sync.Pending)

	lib := a.Library()
	remote, ok := lib.Locate("r1")
	require.True(t, ok)
	assert.Equal(t, shelf.Finished, remote.Shelf)
	local, ok := lib.Locate("b1")
	require.True(t, ok)
	assert.True(t, local.Record.Synced(), "uploaded record should carry its server id")
	assert.Empty(t, lib.Pending())

	sess, ok := a.Session()
	require.True(t, ok)
	assert.Equal(t, "reader", sess.User.Username)
}

func TestSignedIn_MirrorsEdits(t *testing.T) {
	fb := newFakeBackend()
	srv := httptest.NewServer(fb.handler())
	defer srv.Close()
	a, _ := openTestApp(t, srv.URL)
	ctx := context.Background()

	_, err := a.Login(ctx, backend.Credentials{Username: "reader", Password: "secret"})
	require.NoError(t, err)

	require.NoError(t, a.AddBook(ctx, book("b2", "Mirrored"), shelf.Want))
	loc, ok := a.Library().Locate("b2")
	require.True(t, ok)
	require.True(t, loc.Record.Synced())
	serverID := *loc.Record.ServerID

	require.NoError(t, a.MoveBook(ctx, "b2", shelf.Finished))
	require.NoError(t, a.RemoveBook(ctx, "b2"))

	calls := fb.callLog()
	assert.Contains(t, calls, "POST /api/v1/library")
	assert.Contains(t, calls, fmt.Sprintf("PUT /api/v1/library/%d", serverID))
	assert.Contains(t, calls, fmt.Sprintf("DELETE /api/v1/library/%d", serverID))
	assert.Empty(t, a.SyncState().Notice)
}

func TestMirrorFailureKeepsLocalEdit(t *testing.T) {
	fb := newFakeBackend()
	srv := httptest.NewServer(fb.handler())
	a, _ := openTestApp(t, srv.URL)
	ctx := context.Background()

	_, err := a.Login(ctx, backend.Credentials{Username: "reader", Password: "secret"})
	require.NoError(t, err)
	srv.Close()

	require.NoError(t, a.AddBook(ctx, book("b3", "Offline"), shelf.Want))
	loc, ok := a.Library().Locate("b3")
	require.True(t, ok)
	assert.False(t, loc.Record.Synced())
	assert.NotEmpty(t, a.SyncState().Notice)
}

func TestSessionSurvivesReopenAndLogoutClearsIt(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend().handler())
	defer srv.Close()
	a, configPath := openTestApp(t, srv.URL)
	ctx := context.Background()

	_, err := a.Login(ctx, backend.Credentials{Username: "reader", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, a.AddBook(ctx, book("b4", "Kept"), shelf.Want))

	again, err := Open(Options{ConfigPath: configPath, Logger: zap.NewNop(), PrefsPath: a.PrefsPath})
	require.NoError(t, err)
	defer again.Close()
	_, ok := again.Session()
	assert.True(t, ok, "session should load from disk")

	require.NoError(t, again.Logout())
	_, ok = again.Session()
	assert.False(t, ok)
	_, err = os.Stat(again.Config.SessionPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, found := again.Library().Locate("b4")
	assert.True(t, found, "logout keeps local shelves")
}

func TestNote_UsesFirstAuthor(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend().handler())
	defer srv.Close()
	a, _ := openTestApp(t, srv.URL)
	ctx := context.Background()

	rec := book("b5", "Dune")
	rec.Authors = []string{"Frank Herbert", "Someone Else"}
	require.NoError(t, a.AddBook(ctx, rec, shelf.Want))

	note, err := a.Note(ctx, "b5")
	require.NoError(t, err)
	assert.Equal(t, "Dune by Frank Herbert", note)

	_, err = a.Note(ctx, "missing")
	assert.ErrorIs(t, err, shelf.ErrNotFound)
}

func TestSignedIn_ProgressSurvivesSync(t *testing.T) {
	fb := newFakeBackend()
	srv := httptest.NewServer(fb.handler())
	defer srv.Close()
	a, _ := openTestApp(t, srv.URL)
	ctx := context.Background()

	_, err := a.Login(ctx, backend.Credentials{Username: "reader", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, a.AddBook(ctx, book("b6", "Halfway"), shelf.Current))
	require.NoError(t, a.SetProgress(ctx, "b6", 40))

	_, err = a.Sync(ctx)
	require.NoError(t, err)

	loc, ok := a.Library().Locate("b6")
	require.True(t, ok)
	assert.Equal(t, shelf.Current, loc.Shelf)
	require.NotNil(t, loc.Record.Progress, "pull must not erase local progress")
	assert.Equal(t, 40, *loc.Record.Progress)
}

func TestMoodTagsAndSearch(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend().handler())
	defer srv.Close()
	a, _ := openTestApp(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, a.AddBook(ctx, book("b7", "Dune"), shelf.Want))
	tags, err := a.MoodTags(ctx, "b7")
	require.NoError(t, err)
	assert.Equal(t, []string{"epic", "austere"}, tags)

	_, err = a.MoodTags(ctx, "missing")
	assert.ErrorIs(t, err, shelf.ErrNotFound)

	advice, err := a.MoodSearch(ctx, "desert politics")
	require.NoError(t, err)
	assert.Equal(t, "For desert politics: Dune", advice)
}
