package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/drift/internal/backend"
	"github.com/five82/drift/internal/catalog"
	"github.com/five82/drift/internal/config"
	"github.com/five82/drift/internal/logging"
	"github.com/five82/drift/internal/prefs"
	"github.com/five82/drift/internal/reconcile"
	"github.com/five82/drift/internal/session"
	"github.com/five82/drift/internal/shelf"
	"github.com/five82/drift/internal/state"
	"github.com/five82/drift/internal/ui"
)

// Options configure the drift application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/drift/prefs.toml
	DotEnvPath string // empty skips .env loading
	Verbose    bool
	Logger     *zap.Logger // overrides the file logger, mainly for tests
}

// App owns every long-lived piece of drift: the shelf store, remote clients,
// the reconciler and the signed-in session. Both the CLI and the TUI drive
// it through its methods.
type App struct {
	Config     config.Config
	Prefs      prefs.Prefs
	PrefsPath  string
	Logger     *zap.Logger
	Shelves    *shelf.Store
	Backend    *backend.Client
	Catalog    *catalog.Client
	Reconciler *reconcile.Reconciler
	Status     *state.Store
	Metrics    *reconcile.Metrics

	mu      sync.RWMutex
	session session.Session
}

var _ ui.Service = (*App)(nil)

// Open loads configuration and wires the application without starting a UI.
func Open(opts Options) (*App, error) {
	if err := config.LoadDotEnv(opts.DotEnvPath); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger, err = logging.New(cfg.LogPath(), opts.Verbose)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	store, err := shelf.Load(cfg.LibraryPath)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}

	client, err := backend.NewClient(cfg.APIBase, cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}
	books, err := catalog.NewClient(catalog.Options{
		BaseURL: cfg.CatalogURL,
		APIKey:  cfg.CatalogKey,
		RPS:     cfg.CatalogRPS,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init catalog client: %w", err)
	}

	status := &state.Store{}
	metrics := reconcile.NewMetrics()
	a := &App{
		Config:     cfg,
		Prefs:      prefs.Load(opts.PrefsPath),
		PrefsPath:  opts.PrefsPath,
		Logger:     logger,
		Shelves:    store,
		Backend:    client,
		Catalog:    books,
		Reconciler: reconcile.New(store, client, status, metrics, logger),
		Status:     status,
		Metrics:    metrics,
	}
	if sess, ok := session.Load(cfg.SessionPath); ok {
		a.session = sess
	}
	logger.Debug("drift started",
		zap.String("library", cfg.LibraryPath),
		zap.String("api_base", client.BaseURL()),
		zap.Int("records", store.Snapshot().Len()),
	)
	return a, nil
}

// Close flushes the logger.
func (a *App) Close() {
	_ = a.Logger.Sync()
}

// Library returns a copy of the shelves.
func (a *App) Library() shelf.Collection {
	return a.Shelves.Snapshot()
}

// SyncState returns the latest sync status.
func (a *App) SyncState() state.Snapshot {
	return a.Status.Snapshot()
}

// Session returns the signed-in session, if any.
func (a *App) Session() (session.Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session, a.session.Valid()
}

func (a *App) setSession(sess session.Session) {
	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()
}

// LoginResult reports a sign-in. SyncErr is set when the follow-up sync
// failed; the sign-in itself still succeeded.
type LoginResult struct {
	Session session.Session
	Sync    state.SyncResult
	SyncErr error
}

// Login signs in, persists the session and runs the once-per-login sync.
func (a *App) Login(ctx context.Context, creds backend.Credentials) (LoginResult, error) {
	sess, err := a.Backend.Login(ctx, creds)
	if err != nil {
		return LoginResult{}, err
	}
	return a.signedIn(ctx, sess)
}

// Register creates an account and then behaves like Login.
func (a *App) Register(ctx context.Context, reg backend.Registration) (LoginResult, error) {
	sess, err := a.Backend.Register(ctx, reg)
	if err != nil {
		return LoginResult{}, err
	}
	return a.signedIn(ctx, sess)
}

func (a *App) signedIn(ctx context.Context, sess session.Session) (LoginResult, error) {
	if err := session.Save(a.Config.SessionPath, sess); err != nil {
		return LoginResult{}, fmt.Errorf("save session: %w", err)
	}
	a.setSession(sess)
	a.Logger.Info("signed in", zap.String("user", sess.User.Username))

	result, err := a.Reconciler.Login(ctx, sess)
	return LoginResult{Session: sess, Sync: result, SyncErr: err}, nil
}

// Logout forgets the session. Local shelves are untouched.
func (a *App) Logout() error {
	a.setSession(session.Session{})
	if err := session.Clear(a.Config.SessionPath); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.Logger.Info("signed out")
	return nil
}

// Sync runs pull and push for the signed-in user.
func (a *App) Sync(ctx context.Context) (state.SyncResult, error) {
	sess, ok := a.Session()
	if !ok {
		return state.SyncResult{}, &backend.NotAuthenticatedError{Op: "sync"}
	}
	result, err := a.Reconciler.Login(ctx, sess)
	if errors.Is(err, backend.ErrNotAuthenticated) {
		a.Logger.Warn("session rejected by backend")
	}
	return result, err
}

// Search queries the catalog with the configured result count.
func (a *App) Search(ctx context.Context, query string) ([]catalog.Book, error) {
	books, err := a.Catalog.Search(ctx, query, a.Config.MaxResults)
	if err != nil {
		a.Logger.Warn("catalog search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return books, nil
}

// AddBook files rec onto target and mirrors it to the backend when signed in.
// Store contract errors are returned; mirror failures only set a notice.
func (a *App) AddBook(ctx context.Context, rec shelf.BookRecord, target shelf.Name) error {
	if err := a.Shelves.Add(rec, target); err != nil {
		return err
	}
	if sess, ok := a.Session(); ok {
		a.Reconciler.MirrorAdd(ctx, sess, rec.ExternalID)
	}
	return nil
}

// MoveBook moves a record to another shelf.
func (a *App) MoveBook(ctx context.Context, externalID string, to shelf.Name) error {
	loc, ok := a.Shelves.Locate(externalID)
	if !ok {
		return &shelf.NotFoundError{ID: externalID}
	}
	if err := a.Shelves.Move(externalID, loc.Shelf, to); err != nil {
		return err
	}
	if sess, ok := a.Session(); ok && loc.Shelf != to {
		a.Reconciler.MirrorMove(ctx, sess, externalID)
	}
	return nil
}

// RemoveBook deletes a record locally and remotely.
func (a *App) RemoveBook(ctx context.Context, externalID string) error {
	removed, err := a.Shelves.Remove(externalID)
	if err != nil {
		return err
	}
	if sess, ok := a.Session(); ok {
		a.Reconciler.MirrorRemove(ctx, sess, removed)
	}
	return nil
}

// SetProgress records reading progress on a current-shelf record.
func (a *App) SetProgress(ctx context.Context, externalID string, pct int) error {
	if err := a.Shelves.SetProgress(externalID, pct); err != nil {
		return err
	}
	if sess, ok := a.Session(); ok {
		a.Reconciler.MirrorProgress(ctx, sess, externalID)
	}
	return nil
}

// SetRating records a 1..5 rating, or clears it with nil. The library
// service has no rating field, so ratings never leave this machine.
func (a *App) SetRating(externalID string, rating *int) error {
	return a.Shelves.SetRating(externalID, rating)
}

// Note asks the backend for a short note about a shelved book.
func (a *App) Note(ctx context.Context, externalID string) (string, error) {
	rec, err := a.lookup(externalID)
	if err != nil {
		return "", err
	}
	return a.Backend.GenerateNote(ctx, rec.Title, firstAuthor(rec), "")
}

// MoodTags returns a few mood words for a shelved book.
func (a *App) MoodTags(ctx context.Context, externalID string) ([]string, error) {
	rec, err := a.lookup(externalID)
	if err != nil {
		return nil, err
	}
	return a.Backend.MoodTags(ctx, rec.Title, firstAuthor(rec))
}

// MoodSearch asks the backend for suggestions matching a described mood.
func (a *App) MoodSearch(ctx context.Context, query string) (string, error) {
	return a.Backend.MoodSearch(ctx, query)
}

func (a *App) lookup(externalID string) (shelf.BookRecord, error) {
	loc, ok := a.Shelves.Locate(externalID)
	if !ok {
		return shelf.BookRecord{}, &shelf.NotFoundError{ID: externalID}
	}
	return loc.Record, nil
}

func firstAuthor(rec shelf.BookRecord) string {
	if len(rec.Authors) > 0 {
		return rec.Authors[0]
	}
	return ""
}

// SavePrefs stores p and makes it current.
func (a *App) SavePrefs(p prefs.Prefs) error {
	a.Prefs = p
	return prefs.Save(a.PrefsPath, p)
}

// Run opens the application and blocks in the terminal UI until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	a, err := Open(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	return ui.Run(ui.Options{
		Context:   ctx,
		Service:   a,
		Prefs:     a.Prefs,
		PrefsPath: a.PrefsPath,
		LogPath:   a.Config.LogPath(),
	})
}
