// Package settings provides storage for sheetxml's cached OAuth token.
//
// The token lives in the XDG data directory:
//
//	$XDG_DATA_HOME/sheetxml/token.json  (default: ~/.local/share/sheetxml/token.json)
//
// File format (versioned JSON envelope):
//
//	{
//	  "version": 1,
//	  "token": {
//	    "access_token": "…",
//	    "refresh_token": "…",
//	    "token_type": "Bearer",
//	    "expiry": "2026-10-19T12:00:00Z"
//	  }
//	}
//
// File permissions are 0600 (owner read/write only).
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

const (
	dataDirName = "sheetxml"
	fileName    = "token.json"
)

// Version is the token file format version written by Save.
const Version = 1

var (
	// ErrNoToken is returned by Load when no token has been cached yet.
	ErrNoToken = errors.New("no cached token")
	// ErrUnsupportedVersion is returned by Load for a file written in an
	// unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported token file version")
)

// Token is the cached OAuth credential.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// FromOAuth2 converts an oauth2 token.
func FromOAuth2(t *oauth2.Token) Token {
	return Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// OAuth2 converts the token for use with golang.org/x/oauth2.
func (t Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// Expired reports whether the access token is past its expiry. A zero
// expiry never expires.
func (t Token) Expired(now time.Time) bool {
	return !t.Expiry.IsZero() && !now.Before(t.Expiry)
}

type envelope struct {
	Version int   `json:"version"`
	Token   Token `json:"token"`
}

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// DataDir returns the sheetxml data directory.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// DefaultPath returns the default token file path.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

// Store reads and writes the token file at Path.
type Store struct {
	Path string
}

// NewStore returns a Store for path, or for DefaultPath when path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{Path: path}, nil
}

// Load reads the cached token. It returns ErrNoToken if the file does not
// exist.
func (s *Store) Load() (Token, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Token{}, ErrNoToken
		}
		return Token{}, fmt.Errorf("opening token file: %w", err)
	}
	defer f.Close()

	var env envelope
	if err := json.NewDecoder(f).Decode(&env); err != nil {
		return Token{}, fmt.Errorf("parsing %s: %w", s.Path, err)
	}
	if env.Version != Version {
		return Token{}, fmt.Errorf("%s: version %d: %w", s.Path, env.Version, ErrUnsupportedVersion)
	}
	if env.Token.AccessToken == "" && env.Token.RefreshToken == "" {
		return Token{}, ErrNoToken
	}
	return env.Token, nil
}

// Save writes the token with 0600 permissions, creating the parent
// directory with 0700.
func (s *Store) Save(t Token) (err error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening token file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing token file: %w", cerr))
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(envelope{Version: Version, Token: t}); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Remove deletes the cached token. A missing file is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskToken returns a masked version of a token for display.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
