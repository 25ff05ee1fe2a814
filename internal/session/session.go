// Package session persists the signed-in user between runs.
// By default the session lives in ~/.config/drift/session.toml with 0600 permissions.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	toml "github.com/pelletier/go-toml/v2"
)

// User is the identity returned by the backend on login or registration.
type User struct {
	ID       int64  `toml:"id" json:"id"`
	Username string `toml:"username" json:"username"`
	Email    string `toml:"email" json:"email"`
}

// Session is an authenticated user plus the bearer token for the backend.
type Session struct {
	Token string `toml:"token"`
	User  User   `toml:"user"`
}

// Valid reports whether the session can be used for remote calls.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.Token) != "" && s.User.ID > 0
}

// ExpiresAt reads the token's exp claim without verifying the signature.
// The zero time means the token carries no readable expiry.
func (s Session) ExpiresAt() time.Time {
	if strings.TrimSpace(s.Token) == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Load reads a stored session. A missing, unreadable or malformed file means
// nobody is signed in; the boolean reports whether a usable session was found.
func Load(path string) (Session, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, false
	}
	var s Session
	if err := toml.Unmarshal(data, &s); err != nil {
		return Session{}, false
	}
	if !s.Valid() {
		return Session{}, false
	}
	return s, true
}

// Save writes the session, creating directories as needed.
func Save(path string, s Session) error {
	if !s.Valid() {
		return fmt.Errorf("refusing to save incomplete session")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
