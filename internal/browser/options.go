// Package browser provides shared chromedp configuration with anti-bot-detection measures.
package browser

import (
	"github.com/chromedp/chromedp"
)

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Mode controls where the browser window lives. Shopee's anti-bot checks
// flag headless Chrome, so we never run headless: an unattended session
// uses a real window parked outside the visible desktop instead.
type Mode int

const (
	// Offscreen positions the window at -2000,-2000 so the user never
	// sees it.
	Offscreen Mode = iota
	// Visible places the window on-screen, for login and for manual
	// CAPTCHA solving.
	Visible
)

// Options returns chromedp allocator options with anti-bot-detection
// measures. All browser instances should use this so the fingerprint
// stays consistent across off-screen and visible sessions.
func Options(mode Mode, width, height int) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),

		// Prevent navigator.webdriver = true detection
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		// Use a realistic user agent
		chromedp.UserAgent(DefaultUserAgent),

		chromedp.WindowSize(width, height),

		// Disable automation-related extensions and features
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if mode == Offscreen {
		opts = append(opts, chromedp.Flag("window-position", "-2000,-2000"))
	}

	return opts
}

// WithProfile adds a persistent user-data directory to the options.
func WithProfile(opts []chromedp.ExecAllocatorOption, profileDir string) []chromedp.ExecAllocatorOption {
	if profileDir == "" {
		return opts
	}
	return append(opts, chromedp.Flag("user-data-dir", profileDir))
}
