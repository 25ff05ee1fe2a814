package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/drift/internal/shelf"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	content := m.buildStatusContent(styles, bg)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(content)
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < 100

	var parts []string
	parts = append(parts, bg.Render("drift", styles.Logo))

	// Account
	if m.signedIn {
		parts = append(parts, bg.Render("● "+m.username, styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("○ signed out", styles.MutedText))
	}

	// Shelf counts
	for _, n := range shelf.Names {
		label := n.Label()
		if compact {
			label = string(n)
		}
		color := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ShelfColor(n)))
		parts = append(parts,
			bg.Render(label+":", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(m.library[n])), color))
	}

	// Local-only records waiting for upload
	if pending := len(m.library.Pending()); pending > 0 && m.signedIn {
		parts = append(parts,
			bg.Render("Pending:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", pending), styles.WarningText))
	}

	// Sync state
	if m.signedIn {
		parts = append(parts, m.formatSyncState(compact, styles, bg))
	}

	if m.status.Notice != "" {
		parts = append(parts, bg.Render("! "+m.status.Notice, styles.WarningText.Bold(true)))
	}

	// Transient action result
	if m.flash != "" {
		maxLen := 80
		if compact {
			maxLen = 40
		}
		style := styles.InfoText
		if m.flashBad {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(truncate(m.flash, maxLen), style))
	}

	return bg.Join(parts, "  ")
}

// formatSyncState describes the last sync and connectivity.
func (m Model) formatSyncState(compact bool, styles Styles, bg BgStyle) string {
	if m.status.IsOffline() {
		label := "OFFLINE"
		if hint := classifyConnectionError(m.status.LastError); hint != "" && !compact {
			label += " " + hint
		}
		return bg.Render(label, styles.DangerText.Bold(true))
	}
	if !m.status.HasResult {
		return bg.Render("not synced", styles.FaintText)
	}
	return bg.Render("Synced", styles.MutedText) + bg.Space() +
		bg.Render(formatTimestamp(m.status.Last.Finished, time.Now()), styles.Text)
}

// formatTimestamp formats a time with a relative indicator.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	since := now.Sub(t)
	out := t.Local().Format("15:04:05")

	switch {
	case since < time.Minute:
		out += " (now)"
	case since < time.Hour:
		out += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		out += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return out
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "(refused)"
	case strings.Contains(msg, "no such host"):
		return "(host not found)"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "(timeout)"
	case strings.Contains(msg, "not authenticated"):
		return "(sign in again)"
	default:
		return ""
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewSearch:
		if m.search.input.Focused() {
			commands = []cmd{
				{"enter", "Search"},
				{"esc", "Results"},
			}
		} else {
			commands = []cmd{
				{"j/k", "Navigate"},
				{"w/c/f", "Add to shelf"},
				{"/", "New search"},
				{"esc", "Shelves"},
				{"?", "More"},
			}
		}
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"j/k", "Scroll"},
			{"esc", "Shelves"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"tab", "Shelf"},
			{"s", titleCase(string(m.sortKey))},
			{"/", "Search"},
			{"w/c/f", "Move"},
			{"p", "Progress"},
			{"x", "Remove"},
			{"S", "Sync"},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Footer.Width(m.width).Render(bg.Join(segments, "  "))
}

// renderTitledBox renders content in a box with the title embedded in the top border.
// When focused is true, uses BorderFocus color and FocusBg background.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 1))
	titleLen := len([]rune(title))
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	padded := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		padded = append(padded,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(padded, "\n") + "\n" + bottomBorder
}
