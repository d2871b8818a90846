package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// CaptchaAPIKeyVar is the environment variable holding the 2captcha key.
const CaptchaAPIKeyVar = "2CAPTCHA_API_KEY"

// Config holds all application configuration
type Config struct {
	Version int           `toml:"version"`
	Site    SiteConfig    `toml:"site"`
	Browser BrowserConfig `toml:"browser"`
	Captcha CaptchaConfig `toml:"captcha"`
	Watch   WatchConfig   `toml:"watch"`
}

type SiteConfig struct {
	BaseURL string `toml:"base_url"`
	APIBase string `toml:"api_base"`
}

type BrowserConfig struct {
	WindowWidth  int `toml:"window_width"`
	WindowHeight int `toml:"window_height"`
	// PageSettleSecs is how long to wait after navigation for the page
	// to render before scraping it.
	PageSettleSecs int `toml:"page_settle_secs"`
}

// CaptchaConfig holds the auto-solve tunables. The defaults preserve the
// required ordering: widget wait < poll timeout, and post-refresh settle
// longer than the modal-dismiss settle.
type CaptchaConfig struct {
	MaxAttempts           int `toml:"max_attempts"`
	WidgetWaitSecs        int `toml:"widget_wait_secs"`
	PollIntervalSecs      int `toml:"poll_interval_secs"`
	PollTimeoutSecs       int `toml:"poll_timeout_secs"`
	PostDragSettleSecs    int `toml:"post_drag_settle_secs"`
	PostRefreshSettleSecs int `toml:"post_refresh_settle_secs"`
	ModalSettleMillis     int `toml:"modal_settle_millis"`
}

type WatchConfig struct {
	IntervalHours int `toml:"interval_hours"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Site: SiteConfig{
			BaseURL: "https://shopee.com.my",
			APIBase: "https://shopee.com.my/api/v4",
		},
		Browser: BrowserConfig{
			WindowWidth:    1280,
			WindowHeight:   720,
			PageSettleSecs: 5,
		},
		Captcha: CaptchaConfig{
			MaxAttempts:           8,
			WidgetWaitSecs:        15,
			PollIntervalSecs:      2,
			PollTimeoutSecs:       60,
			PostDragSettleSecs:    3,
			PostRefreshSettleSecs: 4,
			ModalSettleMillis:     500,
		},
		Watch: WatchConfig{
			IntervalHours: 6,
		},
	}
}

// PageSettle returns the post-navigation settle time as a duration.
func (c *Config) PageSettle() time.Duration {
	return time.Duration(c.Browser.PageSettleSecs) * time.Second
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "shopee-cli"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the directory for the watch database and other
// regenerable state.
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "shopee-cli"), nil
}

// ProfileDir returns the persistent Chrome profile directory. Reusing a
// profile across runs keeps the browser fingerprint stable, which lowers
// the rate of anti-bot challenges.
func ProfileDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	profile := filepath.Join(dir, "chrome-profile")
	if err := os.MkdirAll(profile, 0700); err != nil {
		return "", err
	}
	return profile, nil
}

// Load reads config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads the config, creating a default one on first run.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = Default()
		if os.IsNotExist(err) {
			// First run - persist the defaults so the user has a file to edit
			_ = cfg.Save()
		}
	}
	return cfg
}

// Save writes config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// CaptchaAPIKey loads the 2captcha API key from the environment or from
// a dotenv file. The search order is fixed: process environment, .env in
// the working directory, .env one directory up, .env in the config dir.
// Returns "" if no key is found anywhere.
func CaptchaAPIKey() string {
	if key := os.Getenv(CaptchaAPIKeyVar); key != "" {
		return key
	}

	candidates := []string{".env", filepath.Join("..", ".env")}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}

	for _, path := range candidates {
		env, err := godotenv.Read(path)
		if err != nil {
			continue
		}
		if key := env[CaptchaAPIKeyVar]; key != "" {
			return key
		}
	}
	return ""
}
