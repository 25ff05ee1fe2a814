package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/drift/internal/shelf"
)

// Theme is the resolved color set the views render with.
type Theme struct {
	Name string

	Background string
	Surface    string // header, footer and modals
	SurfaceAlt string // unfocused panes
	FocusBg    string // focused pane

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Shelf colors tint counts, badges and progress on each shelf.
	Shelf map[shelf.Name]string
	// Pending and Synced color the per-record sync marker.
	Pending string
	Synced  string
}

// palette is the compact form a theme is declared in. Surfaces are listed
// darkest first; text colors brightest first.
type palette struct {
	surfaces  [4]string // background, surface, alt, focus
	selection [2]string // background, text
	border    [2]string // default, focus
	text      [3]string // text, muted, faint
	accent    string
	success   string
	warning   string
	danger    string
	info      string
	pending   string
}

func (p palette) theme(name string) Theme {
	return Theme{
		Name:          name,
		Background:    p.surfaces[0],
		Surface:       p.surfaces[1],
		SurfaceAlt:    p.surfaces[2],
		FocusBg:       p.surfaces[3],
		SelectionBg:   p.selection[0],
		SelectionText: p.selection[1],
		Border:        p.border[0],
		BorderFocus:   p.border[1],
		Text:          p.text[0],
		Muted:         p.text[1],
		Faint:         p.text[2],
		Accent:        p.accent,
		Success:       p.success,
		Warning:       p.warning,
		Danger:        p.danger,
		Info:          p.info,
		Shelf: map[shelf.Name]string{
			shelf.Want:     p.accent,
			shelf.Current:  p.warning,
			shelf.Finished: p.success,
		},
		Pending: p.pending,
		Synced:  p.info,
	}
}

// ShelfColor returns the color for n, or Text for an unknown shelf.
func (t Theme) ShelfColor(n shelf.Name) string {
	if c, ok := t.Shelf[n]; ok {
		return c
	}
	return t.Text
}

// Styles contains the text styles built from a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Footer lipgloss.Style
	Logo   lipgloss.Style
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Footer: fg(t.Muted).
			Background(lipgloss.Color(t.Surface)).
			Padding(0, 1),
		Logo: fg(t.Warning).Bold(true),
	}
}

// WithBackground returns a copy whose styles all paint bgColor, so text on
// a panel does not fall back to the terminal background.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	return Styles{
		Text:        s.Text.Background(bg),
		MutedText:   s.MutedText.Background(bg),
		FaintText:   s.FaintText.Background(bg),
		AccentText:  s.AccentText.Background(bg),
		SuccessText: s.SuccessText.Background(bg),
		WarningText: s.WarningText.Background(bg),
		DangerText:  s.DangerText.Background(bg),
		InfoText:    s.InfoText.Background(bg),
		Footer:      s.Footer.Background(bg),
		Logo:        s.Logo.Background(bg),
	}
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{
	// https://github.com/EdenEast/nightfox.nvim
	"Nightfox": palette{
		surfaces:  [4]string{"#131a24", "#192330", "#212e3f", "#29394f"},
		selection: [2]string{"#2b3b51", "#cdcecf"},
		border:    [2]string{"#39506d", "#719cd6"},
		text:      [3]string{"#cdcecf", "#738091", "#71839b"},
		accent:    "#719cd6",
		success:   "#81b29a",
		warning:   "#dbc074",
		danger:    "#c94f6d",
		info:      "#63cdcf",
		pending:   "#f4a261",
	}.theme("Nightfox"),

	// https://github.com/rebelot/kanagawa.nvim
	"Kanagawa": palette{
		surfaces:  [4]string{"#16161D", "#1F1F28", "#2A2A37", "#363646"},
		selection: [2]string{"#2D4F67", "#DCD7BA"},
		border:    [2]string{"#54546D", "#7E9CD8"},
		text:      [3]string{"#DCD7BA", "#C8C093", "#727169"},
		accent:    "#7E9CD8",
		success:   "#98BB6C",
		warning:   "#E6C384",
		danger:    "#E46876",
		info:      "#7FB4CA",
		pending:   "#FFA066",
	}.theme("Kanagawa"),

	// Tailwind slate and sky
	"Slate": palette{
		surfaces:  [4]string{"#020617", "#0f172a", "#1e293b", "#283548"},
		selection: [2]string{"#0284c7", "#f8fafc"},
		border:    [2]string{"#334155", "#38bdf8"},
		text:      [3]string{"#f1f5f9", "#94a3b8", "#64748b"},
		accent:    "#38bdf8",
		success:   "#22c55e",
		warning:   "#f59e0b",
		danger:    "#ef4444",
		info:      "#06b6d4",
		pending:   "#fb923c",
	}.theme("Slate"),
}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["Nightfox"]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns the available themes in cycle order.
func ThemeNames() []string {
	return themeOrder
}
