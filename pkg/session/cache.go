package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/foodfriend/foodfriend/internal/utils"
)

// TokenCache keeps the session token between runs in a 0600 JSON file.
// Reads and writes hold a file lock so a running TUI and a CLI command do
// not interleave.
type TokenCache struct {
	path string
}

type cachedToken struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// NewTokenCache uses path, or ~/.config/foodfriend/session.json when empty.
func NewTokenCache(path string) (*TokenCache, error) {
	if path == "" {
		dir, err := utils.ConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "session.json")
	}
	return &TokenCache{path: path}, nil
}

func (c *TokenCache) Path() string { return c.path }

func (c *TokenCache) withLock(fn func() error) error {
	lock, err := utils.NewFileLock(c.path)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}

// Token returns the cached token, or ErrSignedOut when there is none.
func (c *TokenCache) Token() (string, error) {
	var token string
	err := c.withLock(func() error {
		data, err := os.ReadFile(c.path)
		if errors.Is(err, os.ErrNotExist) {
			return ErrSignedOut
		}
		if err != nil {
			return err
		}
		var ct cachedToken
		if err := json.Unmarshal(data, &ct); err != nil {
			return fmt.Errorf("corrupt session cache %s: %w", c.path, err)
		}
		if ct.Token == "" {
			return ErrSignedOut
		}
		token = ct.Token
		return nil
	})
	return token, err
}

func (c *TokenCache) Save(token string) error {
	data, err := json.Marshal(cachedToken{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return c.withLock(func() error {
		tmp := c.path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o600); err != nil {
			return err
		}
		return os.Rename(tmp, c.path)
	})
}

// Clear removes the cached token. Clearing an empty cache is not an error.
func (c *TokenCache) Clear() error {
	return c.withLock(func() error {
		if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	})
}

// Load reads and parses the cached token.
func (c *TokenCache) Load(secret string, now time.Time) (*Session, error) {
	token, err := c.Token()
	if err != nil {
		return nil, err
	}
	return ParseToken(token, secret, now)
}
