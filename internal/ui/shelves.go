package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/drift/internal/shelf"
)

// visibleRecords returns the active shelf in display order.
func (m *Model) visibleRecords() []shelf.BookRecord {
	return shelf.Sorted(m.library[m.activeShelf], m.sortKey)
}

// selectedRecord returns the highlighted record, if any.
func (m *Model) selectedRecord() *shelf.BookRecord {
	recs := m.visibleRecords()
	if m.selectedRow < 0 || m.selectedRow >= len(recs) {
		return nil
	}
	rec := recs[m.selectedRow]
	return &rec
}

// clampSelection keeps the highlight on the same record when it is still
// visible, otherwise clamps the row into range.
func (m *Model) clampSelection(selectedID string) {
	recs := m.visibleRecords()
	if len(recs) == 0 {
		m.selectedRow = 0
		return
	}
	if selectedID != "" {
		for i, rec := range recs {
			if rec.ExternalID == selectedID {
				m.selectedRow = i
				return
			}
		}
	}
	if m.selectedRow >= len(recs) {
		m.selectedRow = len(recs) - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

func (m *Model) switchShelf(n shelf.Name) {
	if m.activeShelf == n {
		return
	}
	m.activeShelf = n
	m.selectedRow = 0
	m.savePrefs()
}

func (m *Model) cycleShelf(step int) {
	idx := 0
	for i, n := range shelf.Names {
		if n == m.activeShelf {
			idx = i
		}
	}
	idx = (idx + step + len(shelf.Names)) % len(shelf.Names)
	m.switchShelf(shelf.Names[idx])
}

// handleShelfKey processes keyboard input for the shelf view.
func (m Model) handleShelfKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "right":
		m.cycleShelf(1)
		return m, nil
	case "shift+tab", "left":
		m.cycleShelf(-1)
		return m, nil
	case "1", "2", "3":
		idx, _ := strconv.Atoi(msg.String())
		m.switchShelf(shelf.Names[idx-1])
		return m, nil
	case "s":
		m.sortKey = m.sortKey.Next()
		m.selectedRow = 0
		m.savePrefs()
		return m, nil
	}

	recs := m.visibleRecords()
	count := len(recs)
	if count == 0 {
		return m, nil
	}
	rec := recs[min(m.selectedRow, count-1)]

	switch msg.String() {
	case "j", "down":
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case "k", "up":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "g", "home":
		m.selectedRow = 0
	case "G", "end":
		m.selectedRow = count - 1
	case "w":
		return m, m.moveCmd(rec, shelf.Want)
	case "c":
		return m, m.moveCmd(rec, shelf.Current)
	case "f":
		return m, m.moveCmd(rec, shelf.Finished)
	case "p":
		if m.activeShelf != shelf.Current {
			m.setFlash("progress is tracked on the Currently Reading shelf", true)
			return m, nil
		}
		m.modal = newPromptModal(promptProgress, rec.ExternalID,
			fmt.Sprintf("Progress for %s (0-100)", truncate(rec.Title, 30)), progressValue(rec))
	case "r":
		m.modal = newPromptModal(promptRating, rec.ExternalID,
			fmt.Sprintf("Rating for %s (1-5, empty clears)", truncate(rec.Title, 30)), ratingValue(rec))
	case "x", "delete":
		m.modal = newConfirmModal(rec.ExternalID,
			fmt.Sprintf("Remove %q from %s?", truncate(rec.Title, 40), m.activeShelf.Label()))
	case "n":
		return m, m.noteCmd(rec.ExternalID)
	}
	return m, nil
}

func (m Model) moveCmd(rec shelf.BookRecord, to shelf.Name) tea.Cmd {
	if m.svc == nil || m.activeShelf == to {
		return nil
	}
	ctx, svc, id := m.ctx, m.svc, rec.ExternalID
	return func() tea.Msg {
		return actionDoneMsg{op: "moved to " + to.Label(), id: id, err: svc.MoveBook(ctx, id, to)}
	}
}

func (m Model) removeCmd(id string) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return actionDoneMsg{op: "removed", id: id, err: svc.RemoveBook(ctx, id)}
	}
}

func (m Model) progressCmd(id string, pct int) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return actionDoneMsg{op: fmt.Sprintf("progress %d%%", pct), id: id, err: svc.SetProgress(ctx, id, pct)}
	}
}

func (m Model) ratingCmd(id string, rating *int) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	svc := m.svc
	op := "rating cleared"
	if rating != nil {
		op = fmt.Sprintf("rated %d", *rating)
	}
	return func() tea.Msg {
		return actionDoneMsg{op: op, id: id, err: svc.SetRating(id, rating)}
	}
}

func (m Model) noteCmd(id string) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		text, err := svc.Note(ctx, id)
		if err != nil {
			return noteMsg{id: id, err: err}
		}
		// Tags are optional; a failed lookup still shows the note.
		tags, _ := svc.MoodTags(ctx, id)
		return noteMsg{id: id, text: text, tags: tags}
	}
}

func (m *Model) handleActionDone(msg actionDoneMsg) {
	if msg.err != nil {
		m.setFlash(actionError(msg.err), true)
		return
	}
	m.setFlash(fmt.Sprintf("%s: %s", msg.id, msg.op), false)
}

func (m *Model) handleSyncDone(msg syncDoneMsg) {
	if msg.err != nil {
		m.setFlash("sync failed: "+actionError(msg.err), true)
		return
	}
	r := msg.result
	m.setFlash(fmt.Sprintf("synced: %d merged, %d uploaded, %d pending", r.Merged, r.Uploaded, r.Pending), false)
}

func (m *Model) handleNote(msg noteMsg) {
	if msg.err != nil {
		m.setFlash("note: "+actionError(msg.err), true)
		return
	}
	m.notes[msg.id] = msg.text
	if len(msg.tags) > 0 {
		m.moods[msg.id] = msg.tags
	}
	m.setFlash("", false)
}

// actionError turns store and backend errors into a short status line.
func actionError(err error) string {
	switch {
	case errors.Is(err, shelf.ErrDuplicateInOtherShelf):
		return "already on another shelf"
	case errors.Is(err, shelf.ErrNotFound):
		return "book no longer on this shelf"
	}
	return err.Error()
}

func progressValue(rec shelf.BookRecord) string {
	if rec.Progress == nil {
		return ""
	}
	return strconv.Itoa(*rec.Progress)
}

func ratingValue(rec shelf.BookRecord) string {
	if rec.Rating == nil {
		return ""
	}
	return strconv.Itoa(*rec.Rating)
}

// renderShelves renders the shelf view with split layout (list + detail).
func (m Model) renderShelves() string {
	contentHeight := m.height - 2 // Account for header + cmdbar

	listWidth := m.width * 45 / 100
	if m.width >= 160 {
		listWidth = m.width * 35 / 100
	}
	detailWidth := m.width - listWidth

	listContent := m.renderShelfList(listWidth-2, m.theme.FocusBg)
	listPane := m.renderTitledBox(m.shelfTitle(), listContent, listWidth, contentHeight, true)

	var detailContent string
	if rec := m.selectedRecord(); rec != nil {
		detailContent = m.renderRecordDetail(*rec, detailWidth-4, m.theme.SurfaceAlt)
	} else {
		detailContent = lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.Muted)).
			Background(lipgloss.Color(m.theme.SurfaceAlt)).
			Render("Nothing here yet. Press / to search the catalog.")
	}
	detailPane := m.renderTitledBox("Details", detailContent, detailWidth, contentHeight, false)

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// shelfTitle shows every shelf with its count, marking the active one.
func (m Model) shelfTitle() string {
	parts := make([]string, 0, len(shelf.Names))
	for i, n := range shelf.Names {
		label := fmt.Sprintf("%d %s (%d)", i+1, n.Label(), len(m.library[n]))
		if n == m.activeShelf {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

// renderShelfList renders the active shelf as styled rows.
func (m Model) renderShelfList(width int, bgColor string) string {
	recs := m.visibleRecords()
	if len(recs) == 0 {
		return ""
	}

	lines := make([]string, 0, len(recs))
	for i, rec := range recs {
		rowBg := bgColor
		if i == m.selectedRow {
			rowBg = m.theme.SelectionBg
		}
		content := m.formatShelfRow(rec, width, rowBg, i == m.selectedRow)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(content))
	}
	return strings.Join(lines, "\n")
}

// formatShelfRow formats a record row.
// Format: "● Title · Author 42%"
// The dot is filled for synced records and hollow for local-only ones.
func (m Model) formatShelfRow(rec shelf.BookRecord, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)

	marker := "○"
	markerColor := m.theme.Pending
	if rec.Synced() {
		marker = "●"
		markerColor = m.theme.Synced
	}

	suffix := ""
	if rec.Progress != nil {
		suffix = fmt.Sprintf(" %d%%", *rec.Progress)
	}
	if rec.Rating != nil {
		suffix += " " + strings.Repeat("★", *rec.Rating)
	}

	author := truncate(rec.AuthorLine(), max(width/3, 8))
	titleWidth := max(width-len([]rune(author))-len([]rune(suffix))-6, 10)

	var markerStyle, titleStyle, sepStyle, authorStyle, suffixStyle lipgloss.Style
	if selected {
		selText := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		markerStyle, titleStyle, sepStyle, authorStyle, suffixStyle = selText, selText, selText, selText, selText
	} else {
		styles := m.theme.Styles()
		markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(markerColor))
		titleStyle = styles.Text
		sepStyle = styles.FaintText
		authorStyle = styles.MutedText
		suffixStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ShelfColor(m.activeShelf)))
	}

	return bg.Render(marker, markerStyle) + bg.Space() +
		bg.Render(truncate(rec.Title, titleWidth), titleStyle) +
		bg.Render(" · ", sepStyle) +
		bg.Render(author, authorStyle) +
		bg.Render(suffix, suffixStyle)
}

// renderRecordDetail renders the detail pane for one record.
func (m Model) renderRecordDetail(rec shelf.BookRecord, width int, bgColor string) string {
	styles := m.theme.Styles()
	bg := NewBgStyle(bgColor)

	var b strings.Builder
	b.WriteString(bg.Render(truncate(rec.Title, width), styles.Text.Bold(true)))
	b.WriteString("\n")
	b.WriteString(bg.Render(truncate(rec.AuthorLine(), width), styles.MutedText))
	b.WriteString("\n")
	b.WriteString(bg.Badge(m.activeShelf.Label(), m.theme.ShelfColor(m.activeShelf)))
	b.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"ID", rec.ExternalID},
		{"Added", formatAdded(rec)},
		{"Sync", syncLabel(rec)},
	}
	if rec.ThumbnailURL != "" {
		rows = append(rows, struct{ label, value string }{"Cover", truncateMiddle(rec.ThumbnailURL, width-10)})
	}
	for _, row := range rows {
		b.WriteString(bg.Render(padRight(row.label, 8), styles.FaintText))
		b.WriteString(bg.Render(row.value, styles.Text))
		b.WriteString("\n")
	}
	b.WriteString(bg.Render(padRight("Rating", 8), styles.FaintText))
	b.WriteString(bg.Stars(rec.Rating, styles.WarningText, styles.FaintText))
	b.WriteString("\n")

	if rec.Progress != nil {
		b.WriteString("\n")
		barWidth := max(min(width-8, 40), 10)
		b.WriteString(bg.Bar(*rec.Progress, barWidth, styles.AccentText, styles.FaintText))
		b.WriteString(bg.Render(fmt.Sprintf(" %3d%%", *rec.Progress), styles.AccentText))
		b.WriteString("\n")
	}

	if note, ok := m.notes[rec.ExternalID]; ok {
		b.WriteString("\n")
		b.WriteString(bg.Render("Note", styles.AccentText.Bold(true)))
		b.WriteString("\n")
		for _, line := range wrap(note, width) {
			b.WriteString(bg.Render(line, styles.Text))
			b.WriteString("\n")
		}
	}
	if tags := m.moods[rec.ExternalID]; len(tags) > 0 {
		b.WriteString("\n")
		b.WriteString(bg.Render(padRight("Moods", 8), styles.FaintText))
		b.WriteString(bg.Render(strings.Join(tags, " · "), styles.InfoText))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatAdded(rec shelf.BookRecord) string {
	if rec.AddedAt.IsZero() {
		return "unknown"
	}
	return rec.AddedAt.Local().Format("2006-01-02")
}

func syncLabel(rec shelf.BookRecord) string {
	if rec.Synced() {
		return fmt.Sprintf("synced (#%d)", *rec.ServerID)
	}
	return "local only"
}
