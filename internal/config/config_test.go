package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTimingOrdering(t *testing.T) {
	cfg := Default()

	// The widget wait has to give up before the solver poll does, and a
	// page reload needs more settle time than a modal dismissal.
	assert.Less(t, cfg.Captcha.WidgetWaitSecs, cfg.Captcha.PollTimeoutSecs)
	assert.Greater(t, cfg.Captcha.PostRefreshSettleSecs*1000, cfg.Captcha.ModalSettleMillis)
	assert.Greater(t, cfg.Captcha.MaxAttempts, 0)
}

func TestCaptchaAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv(CaptchaAPIKeyVar, "key-from-env")
	assert.Equal(t, "key-from-env", CaptchaAPIKey())
}

func TestCaptchaAPIKeyFromDotenv(t *testing.T) {
	t.Setenv(CaptchaAPIKeyVar, "")

	dir := t.TempDir()
	content := CaptchaAPIKeyVar + "=key-from-dotenv\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0600))

	t.Chdir(dir)
	assert.Equal(t, "key-from-dotenv", CaptchaAPIKey())
}

func TestCaptchaAPIKeyEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	content := CaptchaAPIKeyVar + "=key-from-dotenv\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0600))
	t.Chdir(dir)

	t.Setenv(CaptchaAPIKeyVar, "key-from-env")
	assert.Equal(t, "key-from-env", CaptchaAPIKey())
}
