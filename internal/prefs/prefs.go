// Package prefs handles drift user preferences persistence.
// Preferences are stored in ~/.config/drift/prefs.toml.
package prefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/drift/internal/shelf"
)

// Prefs holds user preferences for the shelf browser.
type Prefs struct {
	Theme     string `toml:"theme"`
	Sort      string `toml:"sort"`
	LastShelf string `toml:"last_shelf"`
}

const (
	defaultPrefsPath = "~/.config/drift/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Default returns the preferences used when nothing is saved.
func Default() Prefs {
	return Prefs{
		Theme:     defaultTheme,
		Sort:      string(shelf.SortAdded),
		LastShelf: string(shelf.Want),
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// SortKey returns the saved sort order, or the default when unknown.
func (p Prefs) SortKey() shelf.SortKey {
	key, err := shelf.ParseSortKey(p.Sort)
	if err != nil {
		return shelf.SortAdded
	}
	return key
}

// Shelf returns the last viewed shelf, or want when unknown.
func (p Prefs) Shelf() shelf.Name {
	n, err := shelf.ParseShelf(p.LastShelf)
	if err != nil {
		return shelf.Want
	}
	return n
}

// Load reads preferences from the given path. Any problem reading or parsing
// the file yields defaults; preferences never block startup.
func Load(path string) Prefs {
	prefs := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs
	}
	file, err := os.Open(resolved)
	if err != nil {
		return prefs
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs
	}

	var saved Prefs
	if err := toml.Unmarshal(bytes, &saved); err != nil {
		return prefs
	}

	if strings.TrimSpace(saved.Theme) != "" {
		prefs.Theme = strings.TrimSpace(saved.Theme)
	}
	if key, err := shelf.ParseSortKey(saved.Sort); err == nil {
		prefs.Sort = string(key)
	}
	if n, err := shelf.ParseShelf(saved.LastShelf); err == nil {
		prefs.LastShelf = string(n)
	}
	return prefs
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
