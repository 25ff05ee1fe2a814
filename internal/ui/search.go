package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/drift/internal/catalog"
	"github.com/five82/drift/internal/shelf"
)

// searchState holds the catalog search view.
type searchState struct {
	input    textinput.Model
	query    string
	results  []catalog.Book
	selected int
	loading  bool
	err      error

	// advice is the mood suggestion text for "~" queries.
	advice    string
	adviceErr error
}

func newSearchState() searchState {
	ti := textinput.New()
	ti.Placeholder = "Search the catalog, or ~ and a mood..."
	ti.CharLimit = 200
	ti.Prompt = "/ "
	return searchState{input: ti}
}

type searchResultMsg struct {
	query     string
	books     []catalog.Book
	err       error
	advice    string
	adviceErr error
}

// moodPrefix marks a query as a described mood rather than a title.
const moodPrefix = "~"

func moodQuery(query string) (string, bool) {
	rest, ok := strings.CutPrefix(query, moodPrefix)
	return strings.TrimSpace(rest), ok
}

// handleSearchInput feeds keys to the focused query input.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.search.input.Value())
		if mood, ok := moodQuery(query); query == "" || (ok && mood == "") {
			return m, nil
		}
		m.search.input.Blur()
		m.search.query = query
		m.search.loading = true
		m.search.err = nil
		return m, m.searchCmd(query)
	case "esc":
		m.search.input.Blur()
		if len(m.search.results) == 0 {
			m.currentView = ViewShelves
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	return m, cmd
}

// handleSearchKey processes result navigation once the input is blurred.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.search.results)
	if count == 0 {
		return m, nil
	}

	switch msg.String() {
	case "j", "down":
		if m.search.selected < count-1 {
			m.search.selected++
		}
	case "k", "up":
		if m.search.selected > 0 {
			m.search.selected--
		}
	case "g", "home":
		m.search.selected = 0
	case "G", "end":
		m.search.selected = count - 1
	case "w", "enter":
		return m, m.addCmd(m.search.results[m.search.selected], shelf.Want)
	case "c":
		return m, m.addCmd(m.search.results[m.search.selected], shelf.Current)
	case "f":
		return m, m.addCmd(m.search.results[m.search.selected], shelf.Finished)
	}
	return m, nil
}

func (m *Model) handleSearchResult(msg searchResultMsg) {
	if msg.query != m.search.query {
		// A newer query is in flight.
		return
	}
	m.search.loading = false
	m.search.err = msg.err
	m.search.results = msg.books
	m.search.advice = msg.advice
	m.search.adviceErr = msg.adviceErr
	m.search.selected = 0
}

func (m Model) searchCmd(query string) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	ctx, svc := m.ctx, m.svc
	mood, isMood := moodQuery(query)
	if !isMood {
		return func() tea.Msg {
			books, err := svc.Search(ctx, query)
			return searchResultMsg{query: query, books: books, err: err}
		}
	}
	return func() tea.Msg {
		advice, adviceErr := svc.MoodSearch(ctx, mood)
		books, err := svc.Search(ctx, mood)
		return searchResultMsg{query: query, books: books, err: err, advice: advice, adviceErr: adviceErr}
	}
}

func (m Model) addCmd(book catalog.Book, target shelf.Name) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		err := svc.AddBook(ctx, book.Record(time.Now().UTC()), target)
		return actionDoneMsg{op: "added to " + target.Label(), id: book.ExternalID, err: err}
	}
}

// renderSearch renders the query line above the result list.
func (m Model) renderSearch() string {
	contentHeight := m.height - 2
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(m.search.input.View())
	b.WriteString("\n\n")

	innerWidth := m.width - 4
	if !m.search.loading {
		switch {
		case m.search.adviceErr != nil:
			b.WriteString(bg.Render(truncate("mood search: "+m.search.adviceErr.Error(), innerWidth), styles.WarningText))
			b.WriteString("\n\n")
		case m.search.advice != "":
			for _, line := range wrap(m.search.advice, innerWidth) {
				b.WriteString(bg.Render(line, styles.InfoText))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	switch {
	case m.search.loading:
		b.WriteString(bg.Render("Searching...", styles.WarningText))
	case m.search.err != nil:
		b.WriteString(bg.Render(truncate(m.search.err.Error(), innerWidth), styles.DangerText))
	case m.search.query != "" && len(m.search.results) == 0:
		b.WriteString(bg.Render("No results", styles.MutedText))
	default:
		b.WriteString(m.renderSearchResults(innerWidth, m.theme.FocusBg))
	}

	title := "Catalog"
	if m.search.query != "" && !m.search.loading {
		title = fmt.Sprintf("Catalog: %s (%d)", truncate(m.search.query, 30), len(m.search.results))
	}
	return m.renderTitledBox(title, b.String(), m.width, contentHeight, true)
}

func (m Model) renderSearchResults(width int, bgColor string) string {
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.search.results))
	for i, book := range m.search.results {
		rowBg := bgColor
		titleStyle, mutedStyle := styles.Text, styles.MutedText
		if i == m.search.selected && !m.search.input.Focused() {
			rowBg = m.theme.SelectionBg
			sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
			titleStyle, mutedStyle = sel, sel
		}
		bg := NewBgStyle(rowBg)

		author := "Unknown author"
		if len(book.Authors) > 0 {
			author = strings.Join(book.Authors, ", ")
		}
		author = truncate(author, max(width/3, 8))
		owned := ""
		if loc, ok := m.library.Locate(book.ExternalID); ok {
			owned = " [" + loc.Shelf.Label() + "]"
		}
		titleWidth := max(width-len([]rune(author))-len([]rune(owned))-3, 10)

		content := bg.Render(truncate(book.Title, titleWidth), titleStyle) +
			bg.Render(" · ", mutedStyle) +
			bg.Render(author, mutedStyle) +
			bg.Render(owned, styles.AccentText)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(content))
	}
	return strings.Join(lines, "\n")
}
