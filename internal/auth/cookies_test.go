package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *CookieStore {
	t.Helper()
	return NewCookieStore(filepath.Join(t.TempDir(), "cookies.json"))
}

func sessionCookies() []*network.Cookie {
	return []*network.Cookie{
		{Name: "SPC_F", Value: "fingerprint", Domain: ".shopee.com.my"},
		{Name: SessionCookie, Value: "secret-session", Domain: ".shopee.com.my"},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cs := tempStore(t)
	require.NoError(t, cs.Save(sessionCookies()))

	loaded := cs.Load()
	require.Len(t, loaded, 2)
	assert.Equal(t, SessionCookie, loaded[1].Name)
	assert.Equal(t, "secret-session", loaded[1].Value)
	assert.True(t, cs.IsValid())
}

func TestSaveRestrictsPermissions(t *testing.T) {
	cs := tempStore(t)
	require.NoError(t, cs.Save(sessionCookies()))

	info, err := os.Stat(cs.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadMissingFile(t *testing.T) {
	cs := tempStore(t)
	assert.Nil(t, cs.Load())
	assert.False(t, cs.IsValid())
}

func TestLoadCorruptFile(t *testing.T) {
	cs := tempStore(t)
	require.NoError(t, os.WriteFile(cs.path, []byte("not json"), 0600))
	assert.Nil(t, cs.Load())
}

func TestLoadStaleCookies(t *testing.T) {
	cs := tempStore(t)

	stored := StoredCookies{
		Cookies: sessionCookies(),
		SavedAt: time.Now().Add(-25 * time.Hour).Unix(),
	}
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cs.path, data, 0600))

	assert.Nil(t, cs.Load())
	assert.False(t, cs.IsValid())
}

func TestIsValidRequiresSessionCookie(t *testing.T) {
	cs := tempStore(t)
	require.NoError(t, cs.Save([]*network.Cookie{
		{Name: "SPC_F", Value: "fingerprint"},
	}))

	assert.NotNil(t, cs.Load(), "anonymous cookies still load")
	assert.False(t, cs.IsValid(), "but they are not an authenticated session")
}

func TestClear(t *testing.T) {
	cs := tempStore(t)
	require.NoError(t, cs.Save(sessionCookies()))
	require.NoError(t, cs.Clear())
	assert.Nil(t, cs.Load())

	// clearing twice is fine
	assert.NoError(t, cs.Clear())
}
