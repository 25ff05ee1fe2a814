// Package config loads drift's configuration file.
//
// # Resolution
//
// Load reads ~/.config/drift/config.toml unless a path is given. A missing
// file is not an error: every field has a default, so drift works out of the
// box against a backend on localhost. Empty or non-positive values also fall
// back to defaults. A file that exists but does not parse is an error.
//
// # Fields
//
//	api_base                = "http://127.0.0.1:5000"
//	catalog_url             = "https://www.googleapis.com/books/v1"
//	catalog_key             = ""
//	max_results             = 20      # clamped to 40
//	library_path            = "~/.local/share/drift/library.json"
//	session_path            = "~/.config/drift/session.toml"
//	log_dir                 = "~/.local/state/drift"
//	request_timeout_seconds = 10
//	catalog_rps             = 5
//
// Paths are tilde-expanded and made absolute.
//
// # Environment
//
// DRIFT_API_BASE overrides api_base. DRIFT_CATALOG_KEY or
// GOOGLE_BOOKS_API_KEY override catalog_key. LoadDotEnv can seed these from a
// .env file first; variables already present in the environment win.
package config
