package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/kitlim/shopee-cli/internal/config"
)

// SessionCookie is the Shopee cookie that carries the authenticated
// session. Its presence is how we tell a logged-in cookie set from an
// anonymous one.
const SessionCookie = "SPC_EC"

// maxCookieAge is how long saved cookies are trusted before the user has
// to log in again.
const maxCookieAge = 24 * time.Hour

// CookieStore handles storage of Shopee session cookies on disk
type CookieStore struct {
	path string
}

// StoredCookies is the persisted wire format. SavedAt is epoch seconds.
type StoredCookies struct {
	Cookies []*network.Cookie `json:"cookies"`
	SavedAt int64             `json:"saved_at"`
}

// NewCookieStore creates a cookie store at the given path
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// DefaultCookieStorePath returns the default path for cookie storage
func DefaultCookieStorePath() (string, error) {
	configDir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cookies.json"), nil
}

// Save persists cookies to disk with owner-only permissions
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	dir := filepath.Dir(cs.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	stored := StoredCookies{
		Cookies: cookies,
		SavedAt: time.Now().Unix(),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cs.path, data, 0600)
}

// Load retrieves cookies from disk. Returns nil (no error) if there is
// no cookie file, it is unreadable, or the cookies are stale; all of
// these mean the same thing to callers: no usable session.
func (cs *CookieStore) Load() []*network.Cookie {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return nil
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil
	}

	if time.Since(time.Unix(stored.SavedAt, 0)) > maxCookieAge {
		return nil
	}

	return stored.Cookies
}

// IsValid reports whether a fresh, authenticated cookie set is stored
func (cs *CookieStore) IsValid() bool {
	return hasSessionCookie(cs.Load())
}

// Clear removes stored cookies
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func hasSessionCookie(cookies []*network.Cookie) bool {
	for _, c := range cookies {
		if c.Name == SessionCookie && c.Value != "" {
			return true
		}
	}
	return false
}
