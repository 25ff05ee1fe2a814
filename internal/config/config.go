package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything drift reads from config.toml and the environment.
type Config struct {
	APIBase        string
	CatalogURL     string
	CatalogKey     string
	MaxResults     int
	LibraryPath    string
	SessionPath    string
	LogDir         string
	RequestTimeout time.Duration
	CatalogRPS     float64
}

const (
	defaultConfigPath     = "~/.config/drift/config.toml"
	defaultAPIBase        = "http://127.0.0.1:5000"
	defaultCatalogURL     = "https://www.googleapis.com/books/v1"
	defaultMaxResults     = 20
	maxResultsLimit       = 40
	defaultLibraryPath    = "~/.local/share/drift/library.json"
	defaultSessionPath    = "~/.config/drift/session.toml"
	defaultLogDir         = "~/.local/state/drift"
	defaultTimeoutSeconds = 10
	defaultCatalogRPS     = 5
)

// Environment overrides, applied after the file. DRIFT_CATALOG_KEY wins over
// GOOGLE_BOOKS_API_KEY when both are set.
const (
	EnvAPIBase        = "DRIFT_API_BASE"
	EnvCatalogKey     = "DRIFT_CATALOG_KEY"
	EnvGoogleBooksKey = "GOOGLE_BOOKS_API_KEY"
)

type fileConfig struct {
	APIBase               string  `toml:"api_base"`
	CatalogURL            string  `toml:"catalog_url"`
	CatalogKey            string  `toml:"catalog_key"`
	MaxResults            int     `toml:"max_results"`
	LibraryPath           string  `toml:"library_path"`
	SessionPath           string  `toml:"session_path"`
	LogDir                string  `toml:"log_dir"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	CatalogRPS            float64 `toml:"catalog_rps"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg, _ := build(fileConfig{})
	return cfg
}

// Load locates and parses config.toml, falling back to defaults when missing.
// Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&raw)
	return build(raw)
}

// LoadDotEnv reads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LogPath returns the drift log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/drift.log")
	}
	return filepath.Join(c.LogDir, "drift.log")
}

func applyEnv(raw *fileConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		raw.APIBase = v
	}
	for _, key := range []string{EnvGoogleBooksKey, EnvCatalogKey} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			raw.CatalogKey = v
		}
	}
}

func build(raw fileConfig) (Config, error) {
	cfg := Config{
		APIBase:        orDefault(raw.APIBase, defaultAPIBase),
		CatalogURL:     strings.TrimRight(orDefault(raw.CatalogURL, defaultCatalogURL), "/"),
		CatalogKey:     strings.TrimSpace(raw.CatalogKey),
		MaxResults:     raw.MaxResults,
		RequestTimeout: time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		CatalogRPS:     raw.CatalogRPS,
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	cfg.MaxResults = min(cfg.MaxResults, maxResultsLimit)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.CatalogRPS <= 0 {
		cfg.CatalogRPS = defaultCatalogRPS
	}

	var err error
	if cfg.LibraryPath, err = expandPath(orDefault(raw.LibraryPath, defaultLibraryPath)); err != nil {
		return Config{}, fmt.Errorf("library_path: %w", err)
	}
	if cfg.SessionPath, err = expandPath(orDefault(raw.SessionPath, defaultSessionPath)); err != nil {
		return Config{}, fmt.Errorf("session_path: %w", err)
	}
	if cfg.LogDir, err = expandPath(orDefault(raw.LogDir, defaultLogDir)); err != nil {
		return Config{}, fmt.Errorf("log_dir: %w", err)
	}
	return cfg, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
