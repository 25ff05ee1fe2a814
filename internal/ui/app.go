package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/drift/internal/catalog"
	"github.com/five82/drift/internal/prefs"
	"github.com/five82/drift/internal/session"
	"github.com/five82/drift/internal/shelf"
	"github.com/five82/drift/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewShelves View = iota
	ViewSearch
	ViewLogs
)

// Service is everything the UI needs from the application. Store mutations
// and remote calls happen behind it; the UI only renders snapshots.
type Service interface {
	Library() shelf.Collection
	SyncState() state.Snapshot
	Session() (session.Session, bool)
	Search(ctx context.Context, query string) ([]catalog.Book, error)
	AddBook(ctx context.Context, rec shelf.BookRecord, target shelf.Name) error
	MoveBook(ctx context.Context, externalID string, to shelf.Name) error
	RemoveBook(ctx context.Context, externalID string) error
	SetProgress(ctx context.Context, externalID string, pct int) error
	SetRating(externalID string, rating *int) error
	Sync(ctx context.Context) (state.SyncResult, error)
	Note(ctx context.Context, externalID string) (string, error)
	MoodTags(ctx context.Context, externalID string) ([]string, error)
	MoodSearch(ctx context.Context, query string) (string, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Service   Service
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
	PollTick  time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	svc       Service
	prefsPath string
	logPath   string
	pollTick  time.Duration

	// UI state
	theme       Theme
	keys        keyMap
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	library     shelf.Collection
	status      state.Snapshot
	username    string
	signedIn    bool
	lastUpdated time.Time

	// Shelf state
	activeShelf shelf.Name
	sortKey     shelf.SortKey
	selectedRow int
	notes       map[string]string
	moods       map[string][]string

	// Search state
	search searchState

	// Log state
	logViewport viewport.Model
	logState    logState

	// Overlays
	showHelp bool
	modal    Modal

	// Transient message shown in the header until the next action
	flash    string
	flashBad bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:         ctx,
		svc:         opts.Service,
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		pollTick:    pollTick,
		theme:       GetTheme(opts.Prefs.Theme),
		keys:        DefaultKeyMap(),
		currentView: ViewShelves,
		library:     shelf.NewCollection(),
		activeShelf: opts.Prefs.Shelf(),
		sortKey:     opts.Prefs.SortKey(),
		notes:       make(map[string]string),
		moods:       make(map[string][]string),
		search:      newSearchState(),
		logState:    logState{follow: true},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.svc != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.svc))
		// A session restored from disk gets the same pull and push as a
		// fresh sign-in.
		if _, ok := m.svc.Session(); ok {
			cmds = append(cmds, m.syncCmd())
		}
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(msg)
		return m, nil

	case searchResultMsg:
		m.handleSearchResult(msg)
		return m, nil

	case actionDoneMsg:
		m.handleActionDone(msg)
		if m.svc != nil {
			return m, fetchSnapshotCmd(m.svc)
		}
		return m, nil

	case syncDoneMsg:
		m.handleSyncDone(msg)
		if m.svc != nil {
			return m, fetchSnapshotCmd(m.svc)
		}
		return m, nil

	case noteMsg:
		m.handleNote(msg)
		return m, nil

	case logTailMsg:
		m.handleLogTail(msg)
		return m, nil

	case promptSubmitMsg:
		return m.handlePromptSubmit(msg)
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}

	// Text entry swallows everything except ctrl+c and the keys the search
	// input handles itself.
	if m.currentView == ViewSearch && m.search.input.Focused() {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleSearchInput(msg)
	}

	switch msg.String() {
	case "ctrl+c", "e":
		return m, tea.Quit

	case "h", "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case "S":
		return m, m.syncCmd()

	case "/":
		m.currentView = ViewSearch
		m.search.input.Focus()
		return m, nil

	case "l":
		m.currentView = ViewLogs
		return m, m.refreshLogs()

	case "esc":
		m.currentView = ViewShelves
		return m, nil
	}

	switch m.currentView {
	case ViewShelves:
		return m.handleShelfKey(msg)
	case ViewSearch:
		return m.handleSearchKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}

	return m, nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.svc != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.svc))
	}

	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(msg snapshotMsg) {
	var selectedID string
	if rec := m.selectedRecord(); rec != nil {
		selectedID = rec.ExternalID
	}

	m.library = msg.library
	m.status = msg.status
	m.signedIn = msg.signedIn
	m.username = msg.username
	m.lastUpdated = time.Now()
	m.clampSelection(selectedID)
}

func (m *Model) setFlash(text string, bad bool) {
	m.flash = text
	m.flashBad = bad
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{
		Theme:     m.theme.Name,
		Sort:      string(m.sortKey),
		LastShelf: string(m.activeShelf),
	})
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewShelves:
		return m.renderShelves()
	case ViewSearch:
		return m.renderSearch()
	case ViewLogs:
		return m.renderLogs()
	default:
		return ""
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	library  shelf.Collection
	status   state.Snapshot
	signedIn bool
	username string
}

type actionDoneMsg struct {
	op  string
	id  string
	err error
}

type syncDoneMsg struct {
	result state.SyncResult
	err    error
}

type noteMsg struct {
	id   string
	text string
	tags []string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(svc Service) tea.Cmd {
	return func() tea.Msg {
		sess, ok := svc.Session()
		return snapshotMsg{
			library:  svc.Library(),
			status:   svc.SyncState(),
			signedIn: ok,
			username: sess.User.Username,
		}
	}
}

func (m Model) syncCmd() tea.Cmd {
	if m.svc == nil {
		return nil
	}
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		result, err := svc.Sync(ctx)
		return syncDoneMsg{result: result, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
