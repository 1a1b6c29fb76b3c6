// Package auth keeps backend credentials between runs and inspects the
// bearer tokens the backend issues.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

const serviceName = "eysh"

// ErrNotLoggedIn is returned by Load when no credentials exist for a backend.
var ErrNotLoggedIn = errors.New("not logged in")

// Credentials holds the bearer token issued by one backend.
type Credentials struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	BaseURL     string    `json:"base_url"`
	Email       string    `json:"email,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

// Authorization renders the Authorization header value.
func (c *Credentials) Authorization() string {
	if c == nil || c.AccessToken == "" {
		return ""
	}
	typ := c.TokenType
	if typ == "" || strings.EqualFold(typ, "bearer") {
		typ = "Bearer"
	}
	return typ + " " + c.AccessToken
}

// Store saves credentials per backend URL, preferring the system keyring and
// falling back to a 0600 JSON file.
type Store struct {
	useKeyring  bool
	fallbackDir string
}

// NewStore creates a credential store. The keyring is skipped when disabled
// or when EYSH_NO_KEYRING is set; if it is unreachable a warning is printed
// and the file fallback is used.
func NewStore(fallbackDir string, disableKeyring bool) *Store {
	if disableKeyring || os.Getenv("EYSH_NO_KEYRING") != "" {
		return &Store{fallbackDir: fallbackDir}
	}

	probe := serviceName + "::probe"
	if err := keyring.Set(serviceName, probe, "probe"); err == nil {
		_ = keyring.Delete(serviceName, probe)
		return &Store{useKeyring: true, fallbackDir: fallbackDir}
	}
	fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credentials stored in plaintext at %s\n",
		filepath.Join(fallbackDir, "credentials.json"))
	return &Store{fallbackDir: fallbackDir}
}

// DefaultDir returns $XDG_CONFIG_HOME/eysh or ~/.config/eysh.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "eysh"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "eysh"), nil
}

// UsesKeyring reports whether credentials go to the system keyring.
func (s *Store) UsesKeyring() bool { return s.useKeyring }

func key(baseURL string) string {
	return serviceName + "::" + strings.TrimRight(baseURL, "/")
}

// Load returns the credentials saved for baseURL, or ErrNotLoggedIn.
func (s *Store) Load(baseURL string) (*Credentials, error) {
	if s.useKeyring {
		data, err := keyring.Get(serviceName, key(baseURL))
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
		var creds Credentials
		if err := json.Unmarshal([]byte(data), &creds); err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", err)
		}
		return &creds, nil
	}

	all, err := s.loadFile()
	if err != nil {
		return nil, err
	}
	creds, ok := all[key(baseURL)]
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return creds, nil
}

// Save stores creds under creds.BaseURL.
func (s *Store) Save(creds *Credentials) error {
	if creds == nil || creds.BaseURL == "" {
		return errors.New("credentials need a base URL")
	}
	if s.useKeyring {
		data, err := json.Marshal(creds)
		if err != nil {
			return err
		}
		return keyring.Set(serviceName, key(creds.BaseURL), string(data))
	}

	all, err := s.loadFile()
	if err != nil {
		return err
	}
	all[key(creds.BaseURL)] = creds
	return s.saveFile(all)
}

// Delete removes the credentials for baseURL. Deleting absent credentials
// is not an error.
func (s *Store) Delete(baseURL string) error {
	if s.useKeyring {
		err := keyring.Delete(serviceName, key(baseURL))
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}

	all, err := s.loadFile()
	if err != nil {
		return err
	}
	if _, ok := all[key(baseURL)]; !ok {
		return nil
	}
	delete(all, key(baseURL))
	return s.saveFile(all)
}

func (s *Store) path() string {
	return filepath.Join(s.fallbackDir, "credentials.json")
}

func (s *Store) loadFile() (map[string]*Credentials, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]*Credentials), nil
	}
	if err != nil {
		return nil, err
	}
	all := make(map[string]*Credentials)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path(), err)
	}
	return all, nil
}

func (s *Store) saveFile(all map[string]*Credentials) error {
	if err := os.MkdirAll(s.fallbackDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.fallbackDir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path()); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(s.path())
			return os.Rename(tmpPath, s.path())
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}
