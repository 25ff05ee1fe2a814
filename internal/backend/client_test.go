package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/five82/drift/internal/session"
	"github.com/five82/drift/internal/shelf"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBase {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBase)
	}

	u, err = parseBaseURL("https://books.example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https", u.Scheme)
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func testSession() session.Session {
	return session.Session{Token: "tok", User: session.User{ID: 7, Username: "reader"}}
}

func TestClient_FetchSnapshotDecodesBackendShape(t *testing.T) {
	t.Parallel()

	var gotAuth, gotUserAgent, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUserAgent = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"library":[
			{"id":3,"user_id":7,"google_books_id":"vol-1","title":"Dune","authors":"Frank Herbert, Brian Herbert","thumbnail":"http://img/1","shelf_type":"current","progress":40,"rating":null,"created_at":"2025-03-01T10:11:12.123456"},
			{"id":4,"user_id":7,"google_books_id":"vol-2","title":"Emma","authors":"","thumbnail":"","shelf_type":"Finished","progress":null,"rating":5,"created_at":null}
		]}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	snap, err := c.FetchSnapshot(context.Background(), testSession())
	if err != nil {
		t.Fatalf("FetchSnapshot returned error: %v", err)
	}

	if gotPath != "/api/v1/library/7" {
		t.Fatalf("path = %q, want /api/v1/library/7", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q, want Bearer tok", gotAuth)
	}
	if !strings.HasPrefix(gotUserAgent, "drift/") {
		t.Fatalf("User-Agent = %q, want drift/*", gotUserAgent)
	}
	if len(snap) != 2 {
		t.Fatalf("len(snapshot) = %d, want 2", len(snap))
	}

	first := snap[0]
	if first.ServerID != 3 || first.Shelf != shelf.Current || first.ExternalID != "vol-1" {
		t.Fatalf("first record = %#v", first)
	}
	if len(first.Authors) != 2 || first.Authors[1] != "Brian Herbert" {
		t.Fatalf("authors = %#v, want two names", first.Authors)
	}
	if first.Progress == nil || *first.Progress != 40 {
		t.Fatalf("progress = %v, want 40", first.Progress)
	}
	want := time.Date(2025, time.March, 1, 10, 11, 12, 123456000, time.UTC)
	if !first.CreatedAt.Equal(want) {
		t.Fatalf("CreatedAt = %v, want %v", first.CreatedAt, want)
	}

	second := snap[1]
	if second.Shelf != shelf.Finished {
		t.Fatalf("shelf = %q, want finished", second.Shelf)
	}
	if second.Authors != nil || second.Progress != nil {
		t.Fatalf("second record = %#v, want no authors and nil progress", second)
	}
	if second.Rating == nil || *second.Rating != 5 {
		t.Fatalf("rating = %v, want 5", second.Rating)
	}
	if !second.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt = %v, want zero", second.CreatedAt)
	}
}

func TestClient_RequiresSession(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchSnapshot(context.Background(), session.Session{})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("FetchSnapshot error = %v, want ErrNotAuthenticated", err)
	}
	if err := c.DeleteOne(context.Background(), session.Session{Token: "x"}, 1); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("DeleteOne error = %v, want ErrNotAuthenticated", err)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/health":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/v1/library/7":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"database is down"}`))
		case "/api/v1/library":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.Health(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Health error = %v, want decode response error", err)
	}
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Health error = %v, want ErrNetwork", err)
	}

	_, err = c.FetchSnapshot(context.Background(), testSession())
	if err == nil || !strings.Contains(err.Error(), "database is down") {
		t.Fatalf("FetchSnapshot error = %v, want backend message", err)
	}
	if got := ErrorLabel(err); got != "server" {
		t.Fatalf("ErrorLabel = %q, want server", got)
	}

	_, err = c.UpsertOne(context.Background(), testSession(), shelf.BookRecord{ExternalID: "a", Title: "A"}, shelf.Want)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("UpsertOne error = %v, want ErrNotAuthenticated", err)
	}
}

func TestClient_ConnectionFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClient(addr, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchSnapshot(context.Background(), testSession())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("FetchSnapshot error = %v, want ErrNetwork", err)
	}
	if got := ErrorLabel(err); got != "connection" {
		t.Fatalf("ErrorLabel = %q, want connection", got)
	}
}

func TestClient_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/register":
			if gotBody["username"] == "taken" {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"error":"Username already exists"}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"message":"ok","access_token":"tok-r","user":{"id":9,"username":"newbie","email":"n@example.com"}}`))
		case "/api/v1/login":
			if gotBody["password"] != "secret1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"message":"ok","access_token":"tok-l","user":{"id":9,"username":"newbie","email":"n@example.com"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	sess, err := c.Register(ctx, Registration{Username: " newbie ", Email: "n@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if sess.Token != "tok-r" || sess.User.ID != 9 {
		t.Fatalf("Register session = %#v", sess)
	}
	if gotBody["username"] != "newbie" {
		t.Fatalf("username sent = %q, want trimmed", gotBody["username"])
	}

	_, err = c.Register(ctx, Registration{Username: "taken", Email: "t@example.com", Password: "secret1"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("Register error = %v, want ErrUserExists", err)
	}

	sess, err = c.Login(ctx, Credentials{Username: "newbie", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if sess.Token != "tok-l" {
		t.Fatalf("Login token = %q, want tok-l", sess.Token)
	}

	_, err = c.Login(ctx, Credentials{Username: "newbie", Password: "wrong"})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Login error = %v, want ErrNotAuthenticated", err)
	}
}

func TestClient_AuthValidationSkipsNetwork(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	cases := []struct {
		name  string
		reg   Registration
		field string
	}{
		{"short username", Registration{Username: "ab", Email: "a@b.co", Password: "secret1"}, "username"},
		{"bad characters", Registration{Username: "a b-c", Email: "a@b.co", Password: "secret1"}, "username"},
		{"bad email", Registration{Username: "reader", Email: "nope", Password: "secret1"}, "email"},
		{"short password", Registration{Username: "reader", Email: "a@b.co", Password: "123"}, "password"},
	}
	for _, tc := range cases {
		_, err := c.Register(context.Background(), tc.reg)
		var ve *shelf.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: error = %v, want ValidationError", tc.name, err)
		}
		if ve.Field != tc.field {
			t.Fatalf("%s: field = %q, want %q", tc.name, ve.Field, tc.field)
		}
	}

	_, err = c.Login(context.Background(), Credentials{Username: "  ", Password: "x"})
	if !errors.Is(err, shelf.ErrValidation) {
		t.Fatalf("Login error = %v, want ErrValidation", err)
	}
}

func TestClient_GenerateNoteCaches(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body noteRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(noteResponse{Vibe: "A slow burn about " + body.Title})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	for i := 0; i < 2; i++ {
		note, err := c.GenerateNote(context.Background(), "Dune", "Frank Herbert", "")
		if err != nil {
			t.Fatalf("GenerateNote returned error: %v", err)
		}
		if note != "A slow burn about Dune" {
			t.Fatalf("note = %q", note)
		}
	}
	if calls != 1 {
		t.Fatalf("backend calls = %d, want 1", calls)
	}

	if _, err := c.GenerateNote(context.Background(), " ", "x", ""); !errors.Is(err, shelf.ErrValidation) {
		t.Fatalf("GenerateNote error = %v, want ErrValidation", err)
	}
}
