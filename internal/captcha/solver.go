package captcha

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// oracle is the slice of Oracle the solve loop needs; a stub stands in
// for the real service in tests.
type oracle interface {
	Submit(ctx context.Context, imageB64 string) (int64, error)
	Poll(ctx context.Context, taskID int64, keepalive func(context.Context) bool) ([]Coordinate, error)
	Report(ctx context.Context, taskID int64, correct bool)
}

// Solver runs the automatic solve loop against the slider captcha:
// probe the widget, crop a screenshot, submit it to the solving
// service, poll for the target, drag the handle, and verify, refreshing
// the widget and retrying on any recoverable failure, up to
// Config.MaxAttempts attempts.
type Solver struct {
	browser Browser
	oracle  oracle
	cfg     Config
	log     *zap.Logger
}

// NewSolver creates a Solver driving the given browser and oracle.
func NewSolver(b Browser, o *Oracle, cfg Config, log *zap.Logger) *Solver {
	return &Solver{browser: b, oracle: o, cfg: cfg, log: log}
}

// attemptOutcome is the typed result of a single solve attempt.
type attemptOutcome int

const (
	// outcomeSolved ends the loop successfully.
	outcomeSolved attemptOutcome = iota
	// outcomeRetryRefresh retries after fetching a fresh widget.
	outcomeRetryRefresh
	// outcomeRetrySameWidget retries without touching the widget; used
	// for oracle-side submit failures where the puzzle itself is fine.
	outcomeRetrySameWidget
)

// Solve attempts to solve the captcha automatically. It returns true on
// success and false after exhausting all attempts; exhaustion is a
// normal negative result, not an error. The only error returned is
// context cancellation.
func (s *Solver) Solve(ctx context.Context) (bool, error) {
	s.waitForWidget(ctx)

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		s.log.Info("auto-solving captcha",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.cfg.MaxAttempts))

		switch s.attempt(ctx) {
		case outcomeSolved:
			return true, nil
		case outcomeRetryRefresh:
			s.refreshWidget(ctx)
		case outcomeRetrySameWidget:
			// next attempt reuses the current widget state
		}
	}

	s.log.Warn("auto-solve failed after all attempts",
		zap.Int("attempts", s.cfg.MaxAttempts))
	return false, nil
}

// attempt runs one pass of the probe-submit-poll-drag-verify pipeline.
// Every failure path maps to a typed outcome; nothing escapes.
func (s *Solver) attempt(ctx context.Context) attemptOutcome {
	// Overlapping modals (language picker, promos) steal the pointer
	// events the drag will dispatch.
	if err := s.browser.DismissOverlays(ctx); err != nil {
		s.log.Debug("modal dismissal failed", zap.Error(err))
	}
	sleep(ctx, s.cfg.ModalSettle)

	bounds, err := s.browser.ProbeBounds(ctx)
	if err != nil || bounds == nil {
		s.log.Debug("no captcha elements found", zap.Error(err))
		return outcomeRetryRefresh
	}

	shot, err := s.browser.Screenshot(ctx)
	if err != nil {
		s.log.Debug("screenshot failed", zap.Error(err))
		return outcomeRetryRefresh
	}

	imageB64, crop, err := CropScreenshot(shot, *bounds)
	if err != nil {
		s.log.Debug("crop failed", zap.Error(err))
		return outcomeRetryRefresh
	}

	taskID, err := s.oracle.Submit(ctx, imageB64)
	if err != nil {
		s.log.Debug("submit failed", zap.Error(err))
		return outcomeRetrySameWidget
	}

	coords, err := s.oracle.Poll(ctx, taskID, s.keepalive)
	if err != nil || len(coords) == 0 {
		s.log.Debug("no solver answer", zap.Error(err))
		s.oracle.Report(ctx, taskID, false)
		return outcomeRetryRefresh
	}

	target := coords[0]
	s.log.Debug("solver target in crop space",
		zap.Float64("x", target.X), zap.Float64("y", target.Y))

	// The answer may arrive after a long poll; re-check liveness even
	// though the keepalive hook already watches for it.
	present, err := s.browser.WidgetPresent(ctx)
	if err == nil && !present {
		s.log.Debug("captcha expired before drag")
		s.oracle.Report(ctx, taskID, false)
		return outcomeRetryRefresh
	}

	// Re-probe: element positions may have shifted since the screenshot.
	layout, err := s.browser.ProbeLayout(ctx)
	if err != nil || layout == nil {
		s.log.Debug("layout unavailable", zap.Error(err))
		s.oracle.Report(ctx, taskID, false)
		return outcomeRetryRefresh
	}

	pageX := crop.PageX(target.X)
	distance := DragDistance(pageX, *layout)
	s.log.Debug("drag computed",
		zap.Float64("page_x", pageX),
		zap.Float64("distance", distance),
		zap.Float64("piece_w", layout.PieceW))

	start := Point{X: layout.SliderX + layout.SliderW/2, Y: layout.SliderY}
	if err := s.browser.DragPath(ctx, DragPath(start, distance)); err != nil {
		s.log.Debug("drag failed", zap.Error(err))
		s.oracle.Report(ctx, taskID, false)
		return outcomeRetryRefresh
	}

	sleep(ctx, s.cfg.PostDragSettle)

	showing, err := s.browser.VerificationShowing(ctx)
	if err != nil {
		s.log.Debug("verification check failed", zap.Error(err))
		s.oracle.Report(ctx, taskID, false)
		return outcomeRetryRefresh
	}
	if showing {
		s.log.Info("solution rejected")
		s.oracle.Report(ctx, taskID, false)
		return outcomeRetryRefresh
	}

	s.log.Info("captcha solved automatically")
	s.oracle.Report(ctx, taskID, true)
	return outcomeSolved
}

// keepalive is invoked between result polls: wiggle the pointer so the
// widget doesn't expire, and report whether it is still there. Probe
// errors count as alive; a flaky probe shouldn't abort a paid task.
func (s *Solver) keepalive(ctx context.Context) bool {
	if err := s.browser.Keepalive(ctx); err != nil {
		s.log.Debug("keepalive failed", zap.Error(err))
	}
	present, err := s.browser.WidgetPresent(ctx)
	if err != nil {
		return true
	}
	return present
}

// refreshWidget reloads the page to get a fresh puzzle, then re-settles:
// dismiss modals that reappear on load and wait for the widget.
func (s *Solver) refreshWidget(ctx context.Context) {
	if err := s.browser.Reload(ctx); err != nil {
		s.log.Debug("captcha refresh failed", zap.Error(err))
	}
	sleep(ctx, s.cfg.PostRefreshSettle)
	if err := s.browser.DismissOverlays(ctx); err != nil {
		s.log.Debug("modal dismissal failed", zap.Error(err))
	}
	sleep(ctx, s.cfg.ModalSettle)
	s.waitForWidget(ctx)
}

// waitForWidget blocks until the slider widget appears, bounded by
// Config.WidgetWait with a 1s poll. A timeout is logged but not fatal:
// later pipeline steps detect absence and fail that attempt cleanly.
func (s *Solver) waitForWidget(ctx context.Context) {
	deadline := time.Now().Add(s.cfg.WidgetWait)
	interval := time.Second
	if s.cfg.WidgetWait < interval {
		interval = s.cfg.WidgetWait
	}

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
		present, err := s.browser.WidgetPresent(ctx)
		if err == nil && present {
			// let the widget finish rendering
			sleep(ctx, interval)
			return
		}
		sleep(ctx, interval)
	}
	s.log.Debug("captcha widget did not appear in time",
		zap.Duration("waited", s.cfg.WidgetWait))
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
