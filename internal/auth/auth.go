// Package auth keeps the bearer token and signed-in user on disk.
//
// Two stores exist and at most one holds credentials at a time: the
// persistent store survives reboots ("remember me"), the session store
// lives in the runtime directory and disappears with it.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Makepad-fr/board/internal/model"
)

const (
	credFileName    = "credentials.json"
	sessionFileName = "session.json"

	// EnvToken overrides both stores when set.
	EnvToken = "BOARD_TOKEN"
)

// Source says where a token came from.
type Source string

const (
	SourceEnv        Source = "env"
	SourcePersistent Source = "persistent"
	SourceSession    Source = "session"
)

// Credentials is what a successful login leaves behind.
type Credentials struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *model.User `json:"user,omitempty"`
	Remember     bool        `json:"remember"`
	Source       Source      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	ExpiresAt    *time.Time  `json:"expires_at,omitempty"` // from the JWT exp claim when present
}

// Expired reports whether the token carries an exp claim in the past.
func (c *Credentials) Expired(now time.Time) bool {
	return c != nil && c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Manager reads and writes credentials. The zero value is not usable; see
// NewManager.
type Manager struct {
	mu         sync.Mutex
	persistent string
	session    string
	getenv     func(string) string
}

// NewManager places the persistent file in configDir and the session file
// in sessionDir.
func NewManager(configDir, sessionDir string) *Manager {
	return &Manager{
		persistent: filepath.Join(configDir, credFileName),
		session:    filepath.Join(sessionDir, sessionFileName),
		getenv:     os.Getenv,
	}
}

// DefaultSessionDir is $XDG_RUNTIME_DIR/board or a per-user temp dir.
func DefaultSessionDir() string {
	if d := os.Getenv("XDG_RUNTIME_DIR"); d != "" {
		return filepath.Join(d, "board")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("board-%d", os.Getuid()))
}

// Load returns the active credentials or nil when signed out. The env
// override wins, then the persistent store, then the session store.
func (m *Manager) Load() (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

func (m *Manager) load() (*Credentials, error) {
	if env := strings.TrimSpace(m.getenv(EnvToken)); env != "" {
		c := &Credentials{Token: stripBearer(env), Source: SourceEnv}
		c.ExpiresAt = tokenExpiry(c.Token)
		return c, nil
	}
	for _, s := range []struct {
		path string
		src  Source
	}{{m.persistent, SourcePersistent}, {m.session, SourceSession}} {
		c, err := readCreds(s.path)
		if err != nil {
			return nil, err
		}
		if c != nil && c.Token != "" {
			c.Source = s.src
			return c, nil
		}
	}
	return nil, nil
}

// Token implements api.TokenSource. Read errors count as signed out.
func (m *Manager) Token() string {
	c, err := m.Load()
	if err != nil || c == nil {
		return ""
	}
	return c.Token
}

// Save stores c in the persistent store when c.Remember is set and in the
// session store otherwise, clearing the other one.
func (m *Manager) Save(c Credentials) error {
	c.Token = stripBearer(strings.TrimSpace(c.Token))
	if c.Token == "" {
		return fmt.Errorf("empty token")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.ExpiresAt == nil {
		c.ExpiresAt = tokenExpiry(c.Token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	target, other := m.session, m.persistent
	if c.Remember {
		target, other = m.persistent, m.session
	}
	if err := removeFile(other); err != nil {
		return err
	}
	return writeCreds(target, c)
}

// SetUser replaces the cached user blob in whichever store is active.
func (m *Manager) SetUser(u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.load()
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("not signed in")
	}
	c.User = &u
	switch c.Source {
	case SourcePersistent:
		return writeCreds(m.persistent, *c)
	case SourceSession:
		return writeCreds(m.session, *c)
	}
	// env tokens have nowhere to keep a user; use the session file
	c.Remember = false
	return writeCreds(m.session, *c)
}

// Clear removes every stored auth artifact. An env token cannot be removed
// and is reported through the returned source.
func (m *Manager) Clear() (Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := removeFile(m.persistent); err != nil {
		return "", err
	}
	if err := removeFile(m.session); err != nil {
		return "", err
	}
	if strings.TrimSpace(m.getenv(EnvToken)) != "" {
		return SourceEnv, nil
	}
	return "", nil
}

func readCreds(p string) (*Credentials, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := sonic.ConfigStd.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", p, err)
	}
	c.Token = stripBearer(c.Token)
	return &c, nil
}

func writeCreds(p string, c Credentials) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := sonic.ConfigStd.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func removeFile(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}

// tokenExpiry reads exp without verifying the signature; the server is the
// one that checks it. Opaque tokens return nil.
func tokenExpiry(token string) *time.Time {
	if strings.Count(token, ".") != 2 {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}
