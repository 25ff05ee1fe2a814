package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Sync       key.Binding
	Escape     key.Binding

	// View switching
	Search   key.Binding
	ViewLogs key.Binding

	// Shelf actions
	NextShelf key.Binding
	PrevShelf key.Binding
	PickShelf key.Binding
	CycleSort key.Binding
	ToWant    key.Binding
	ToCurrent key.Binding
	ToDone    key.Binding
	Progress  key.Binding
	Rate      key.Binding
	Remove    key.Binding
	Note      key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Logs actions
	ToggleFollow key.Binding

	// Search/input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Sync: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Sync now"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to shelves"),
		),

		// View switching
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search catalog"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),

		// Shelf actions
		NextShelf: key.NewBinding(
			key.WithKeys("tab", "right"),
			key.WithHelp("tab", "Next shelf"),
		),
		PrevShelf: key.NewBinding(
			key.WithKeys("shift+tab", "left"),
			key.WithHelp("shift+tab", "Previous shelf"),
		),
		PickShelf: key.NewBinding(
			key.WithKeys("1", "2", "3"),
			key.WithHelp("1/2/3", "Jump to shelf"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Cycle sort"),
		),
		ToWant: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Want to read"),
		),
		ToCurrent: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Currently reading"),
		),
		ToDone: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Finished"),
		),
		Progress: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Set progress"),
		),
		Rate: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Rate"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "Remove"),
		),
		Note: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Generate note"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		// Logs actions
		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),

		// Search/input
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextShelf, k.PrevShelf, k.PickShelf, k.CycleSort},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.ToWant, k.ToCurrent, k.ToDone, k.Progress, k.Rate, k.Remove, k.Note},
		{k.Search, k.ViewLogs, k.ToggleFollow, k.Escape},
		{k.Sync, k.CycleTheme, k.Help, k.Quit},
	}
}
