package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/kitlim/shopee-cli/internal/browser"
)

const loginURL = "https://shopee.com.my/buyer/login"

// postLoginIndicators are URL fragments that only appear once the user
// has made it past the login form.
var postLoginIndicators = []string{"shopee.com.my/user/", "shopee.com.my/?"}

// Manager handles Shopee authentication
type Manager struct {
	cookieStore *CookieStore
	log         *zap.Logger
}

// NewManager creates a new auth manager
func NewManager(cookieStore *CookieStore, log *zap.Logger) *Manager {
	return &Manager{cookieStore: cookieStore, log: log}
}

// IsAuthenticated checks if we have valid stored credentials
func (m *Manager) IsAuthenticated() bool {
	return m.cookieStore.IsValid()
}

// Cookies returns the stored cookie set, or nil if none is usable.
func (m *Manager) Cookies() []*network.Cookie {
	return m.cookieStore.Load()
}

// Login opens a visible browser window for the user to log in to Shopee
// and captures the session cookies once login is detected.
func (m *Manager) Login(ctx context.Context) error {
	opts := browser.Options(browser.Visible, 1280, 720)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	m.log.Info("opening browser for Shopee login",
		zap.String("url", loginURL))

	if err := chromedp.Run(browserCtx, chromedp.Navigate(loginURL)); err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}

	if err := m.waitForLogin(browserCtx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Give the site a moment to set the remaining cookies
	time.Sleep(2 * time.Second)

	cookies, err := m.extractCookies(browserCtx)
	if err != nil {
		return fmt.Errorf("failed to extract cookies: %w", err)
	}

	if !hasSessionCookie(cookies) {
		return fmt.Errorf("login incomplete: %s cookie not found", SessionCookie)
	}

	if err := m.cookieStore.Save(cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}

	m.log.Info("login successful, cookies saved",
		zap.String("path", m.cookieStore.path),
		zap.Int("cookies", len(cookies)))
	return nil
}

// waitForLogin polls until the user has successfully logged in
func (m *Manager) waitForLogin(ctx context.Context) error {
	timeout := time.After(5 * time.Minute)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return fmt.Errorf("login timeout exceeded")
		case <-ticker.C:
			var url string
			if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
				// Browser window was likely closed by the user
				return fmt.Errorf("browser closed before login completed: %w", err)
			}

			for _, indicator := range postLoginIndicators {
				if strings.Contains(url, indicator) {
					return nil
				}
			}

			cookies, err := m.extractCookies(ctx)
			if err != nil {
				continue
			}
			if hasSessionCookie(cookies) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// extractCookies gets all cookies from the browser
func (m *Manager) extractCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	return m.cookieStore.Clear()
}
