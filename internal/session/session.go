// Package session owns the controlled browser instance behind every
// Shopee operation: authenticated navigation, in-page API fetches, and
// the captcha flow that kicks in when the site challenges us.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/kitlim/shopee-cli/internal/browser"
	"github.com/kitlim/shopee-cli/internal/captcha"
	"github.com/kitlim/shopee-cli/internal/config"
)

// ErrNotAuthenticated means an authenticated session was requested but
// no usable cookie set is stored.
var ErrNotAuthenticated = errors.New("no valid session found, run 'shopee login' first")

// Config holds everything a Session needs to drive the browser.
type Config struct {
	BaseURL      string
	APIBase      string
	WindowWidth  int
	WindowHeight int
	PageSettle   time.Duration
	ProfileDir   string

	// RequireAuth makes construction fail without stored cookies.
	// Search and product lookups work anonymously; orders do not.
	RequireAuth bool

	Captcha       captcha.Config
	CaptchaAPIKey string
}

// Session is a browser-backed Shopee client. The browser window stays
// parked off-screen; it is only brought on-screen as a last resort when
// a captcha defeats the automatic solver and a human has to step in.
//
// A Session owns exactly one browser instance at a time. Switching
// between off-screen and visible modes tears the old instance down
// before the replacement starts, carrying the same cookie set across.
type Session struct {
	cfg     Config
	cookies []*network.Cookie
	log     *zap.Logger

	parent      context.Context
	browserCtx  context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	// WaitForHuman blocks until the user signals that they have dealt
	// with the on-screen browser. Replaceable for tests; the default
	// reads a line from stdin.
	WaitForHuman func()
}

// New creates a Session with an off-screen browser, injecting the given
// cookies. If cfg.RequireAuth is set and cookies is empty, the session
// is not created and ErrNotAuthenticated is returned.
func New(ctx context.Context, cfg Config, cookies []*network.Cookie, log *zap.Logger) (*Session, error) {
	if cfg.RequireAuth && len(cookies) == 0 {
		return nil, ErrNotAuthenticated
	}

	s := &Session{
		cfg:     cfg,
		cookies: cookies,
		log:     log,
		parent:  ctx,
		WaitForHuman: func() {
			fmt.Println("Press Enter once you've solved the CAPTCHA...")
			reader := bufio.NewReader(os.Stdin)
			_, _ = reader.ReadString('\n')
		},
	}

	if err := s.start(browser.Offscreen); err != nil {
		return nil, err
	}
	return s, nil
}

// start launches a fresh browser in the given mode, injects the cookie
// set, and lands on the site's home page.
func (s *Session) start(mode browser.Mode) error {
	opts := browser.WithProfile(
		browser.Options(mode, s.cfg.WindowWidth, s.cfg.WindowHeight),
		s.cfg.ProfileDir,
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(s.parent, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx,
		s.injectCookies(),
		chromedp.Navigate(s.cfg.BaseURL),
	); err != nil {
		cancel()
		allocCancel()
		return fmt.Errorf("failed to start browser session: %w", err)
	}

	// Let the landing page settle before anything queries the DOM
	time.Sleep(3 * time.Second)

	s.browserCtx = browserCtx
	s.cancel = cancel
	s.allocCancel = allocCancel
	return nil
}

// restart tears down the current browser instance and starts a new one
// in the given mode. Teardown always completes before the replacement
// launches so two instances never coexist.
func (s *Session) restart(mode browser.Mode) error {
	s.teardown()
	time.Sleep(time.Second)
	return s.start(mode)
}

func (s *Session) teardown() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.browserCtx = nil
	s.cancel = nil
	s.allocCancel = nil
}

// injectCookies sets the stored cookies in the browser before the first
// navigation.
func (s *Session) injectCookies() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range s.cookies {
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly).
				Do(ctx)
			if err != nil {
				// A single unloadable cookie shouldn't sink the session
				s.log.Debug("failed to set cookie", zap.String("name", c.Name), zap.Error(err))
			}
		}
		return nil
	})
}

// Navigate loads a URL, waits for the page to settle, and handles any
// captcha interstitial before returning.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := chromedp.Run(s.browserCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	sleep(ctx, s.cfg.PageSettle)
	return s.handleChallenge(ctx, url)
}

// Eval evaluates a JavaScript expression on the current page and
// unmarshals the result into out. Pass nil when the result is unused.
func (s *Session) Eval(ctx context.Context, js string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if out == nil {
		return chromedp.Run(s.browserCtx, chromedp.Evaluate(js, nil))
	}
	return chromedp.Run(s.browserCtx, chromedp.Evaluate(js, out))
}

// handleChallenge deals with an anti-bot verification page: first the
// automatic solver with the browser still off-screen, then the visible
// browser for a human, then back off-screen accepting whatever state
// the human left behind.
func (s *Session) handleChallenge(ctx context.Context, originalURL string) error {
	showing, err := s.VerificationShowing(ctx)
	if err != nil || !showing {
		return nil
	}

	s.log.Warn("captcha detected", zap.String("url", originalURL))

	solved, err := s.autoSolve(ctx)
	if err != nil {
		return err
	}
	if solved {
		sleep(ctx, 2*time.Second)
		return nil
	}

	s.log.Warn("opening browser for manual captcha solve")
	if err := s.restart(browser.Visible); err != nil {
		return err
	}
	if err := chromedp.Run(s.browserCtx, chromedp.Navigate(originalURL)); err != nil {
		return fmt.Errorf("navigate %s: %w", originalURL, err)
	}
	sleep(ctx, 3*time.Second)

	s.WaitForHuman()

	// Back off-screen. No further automatic verification after the
	// human step: whatever state the page is in, the caller gets it.
	if err := s.restart(browser.Offscreen); err != nil {
		return err
	}
	if err := chromedp.Run(s.browserCtx, chromedp.Navigate(originalURL)); err != nil {
		return fmt.Errorf("navigate %s: %w", originalURL, err)
	}
	sleep(ctx, s.cfg.PageSettle)
	return nil
}

// autoSolve runs the captcha solver with the browser off-screen.
// Returns false without error when no API key is configured or the
// solver exhausts its attempts.
func (s *Session) autoSolve(ctx context.Context) (bool, error) {
	if s.cfg.CaptchaAPIKey == "" {
		s.log.Info("no " + config.CaptchaAPIKeyVar + " found, skipping auto-solve")
		return false, nil
	}

	oracle := captcha.NewOracle(
		s.cfg.CaptchaAPIKey,
		s.cfg.Captcha.PollInterval,
		s.cfg.Captcha.PollTimeout,
		s.log,
	)
	solver := captcha.NewSolver(s, oracle, s.cfg.Captcha, s.log)
	return solver.Solve(ctx)
}

// SiteURL joins a path onto the site base URL.
func (s *Session) SiteURL(path string) string {
	return s.cfg.BaseURL + path
}

// VerificationShowing reports whether the current page is the anti-bot
// verification interstitial.
func (s *Session) VerificationShowing(ctx context.Context) (bool, error) {
	var text string
	if err := s.Eval(ctx, verificationTextJS, &text); err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(text), "verify"), nil
}

// Close tears down the browser.
func (s *Session) Close() {
	s.teardown()
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
