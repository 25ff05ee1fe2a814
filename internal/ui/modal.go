package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/drift/internal/shelf"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

type promptKind int

const (
	promptProgress promptKind = iota
	promptRating
	promptRemove
)

// promptSubmitMsg carries a confirmed modal value back to the model.
type promptSubmitMsg struct {
	kind  promptKind
	id    string
	value string
}

// promptModal asks for a single line of input.
type promptModal struct {
	kind  promptKind
	id    string
	title string
	input textinput.Model
}

func newPromptModal(kind promptKind, id, title, value string) promptModal {
	ti := textinput.New()
	ti.CharLimit = 3
	ti.Prompt = "> "
	ti.SetValue(value)
	ti.Focus()
	return promptModal{kind: kind, id: id, title: title, input: ti}
}

func (p promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Confirm):
			submit := promptSubmitMsg{kind: p.kind, id: p.id, value: strings.TrimSpace(p.input.Value())}
			return p, func() tea.Msg { return submit }, true
		case key.Matches(msg, keys.Escape):
			return p, nil, true
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, false
}

func (p promptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.Text.Bold(true).Render(p.title) + "\n\n" +
		p.input.View() + "\n\n" +
		styles.FaintText.Render("enter to save, esc to cancel")
	return placeModal(theme, body, width, height)
}

// confirmModal asks a yes/no question.
type confirmModal struct {
	id       string
	question string
}

func newConfirmModal(id, question string) confirmModal {
	return confirmModal{id: id, question: question}
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch km.String() {
	case "y", "Y", "enter":
		submit := promptSubmitMsg{kind: promptRemove, id: c.id, value: "yes"}
		return c, func() tea.Msg { return submit }, true
	case "n", "N", "esc", "q":
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.WarningText.Bold(true).Render(c.question) + "\n\n" +
		styles.AccentText.Render("y") + styles.MutedText.Render(" remove   ") +
		styles.AccentText.Render("n") + styles.MutedText.Render(" keep")
	return placeModal(theme, body, width, height)
}

func placeModal(theme Theme, body string, width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(min(60, max(width-4, 20))).
		Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// updateModal routes a message to the open modal.
func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
		return m, tea.Quit
	}
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
	} else {
		m.modal = next
	}
	return m, cmd
}

// handlePromptSubmit applies a confirmed modal value.
func (m Model) handlePromptSubmit(msg promptSubmitMsg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case promptRemove:
		return m, m.removeCmd(msg.id)
	case promptProgress:
		pct, err := strconv.Atoi(msg.value)
		if err != nil || pct < 0 || pct > 100 {
			m.setFlash("progress must be a whole number from 0 to 100", true)
			return m, nil
		}
		return m, m.progressCmd(msg.id, pct)
	case promptRating:
		if msg.value == "" {
			return m, m.ratingCmd(msg.id, nil)
		}
		v, err := strconv.Atoi(msg.value)
		if err != nil || v < 1 || v > 5 {
			m.setFlash("rating must be 1 to 5", true)
			return m, nil
		}
		return m, m.ratingCmd(msg.id, shelf.Int(v))
	}
	return m, nil
}
