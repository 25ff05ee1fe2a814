package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders segments onto one background color. lipgloss resets the
// background after every styled segment, so spaces between segments would
// otherwise show the terminal default.
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle returns a helper for the given background color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render applies style and the background to every word of text, keeping
// the gaps between words filled.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	styled := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return styled.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

func (b BgStyle) Space() string {
	return b.space
}

func (b BgStyle) Sep(sep string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(sep)
}

func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}

// FillLine pads content to width so a row paints the whole pane.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}

// Bar draws a reading-progress bar of width cells for pct (0..100).
func (b BgStyle) Bar(pct, width int, filled, empty lipgloss.Style) string {
	if width <= 0 {
		return ""
	}
	n := min(max(pct, 0), 100) * width / 100
	return b.Render(strings.Repeat("█", n), filled) + b.Render(strings.Repeat("░", width-n), empty)
}

// Stars draws a five-star rating; unrated books get five hollow stars.
func (b BgStyle) Stars(rating *int, on, off lipgloss.Style) string {
	n := 0
	if rating != nil {
		n = min(max(*rating, 0), 5)
	}
	return b.Render(strings.Repeat("★", n), on) + b.Render(strings.Repeat("☆", 5-n), off)
}

// Badge renders a short shelf or status label in color, padded by one cell.
func (b BgStyle) Badge(label, color string) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
	return b.space + b.Render(strings.ToUpper(label), style) + b.space
}
