package session

import (
	"context"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/kitlim/shopee-cli/internal/captcha"
)

// Session implements captcha.Browser: the solver drives the widget
// through these typed commands while the scripts stay in scripts.go.
var _ captcha.Browser = (*Session)(nil)

// WidgetPresent reports whether the slider widget is in the DOM.
func (s *Session) WidgetPresent(ctx context.Context) (bool, error) {
	var present bool
	if err := s.Eval(ctx, widgetPresentJS, &present); err != nil {
		return false, err
	}
	return present, nil
}

// ProbeBounds returns the widget's bounding box, or nil if the widget
// or the slider is absent.
func (s *Session) ProbeBounds(ctx context.Context) (*captcha.Bounds, error) {
	var bounds *captcha.Bounds
	if err := s.Eval(ctx, widgetBoundsJS, &bounds); err != nil {
		return nil, err
	}
	return bounds, nil
}

// ProbeLayout returns fresh geometry for the widget's sub-elements, or
// nil if any required element is missing.
func (s *Session) ProbeLayout(ctx context.Context) (*captcha.Layout, error) {
	var layout *captcha.Layout
	if err := s.Eval(ctx, widgetLayoutJS, &layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// DismissOverlays closes modals that may cover the widget.
func (s *Session) DismissOverlays(ctx context.Context) error {
	return s.Eval(ctx, dismissModalsJS, nil)
}

// Keepalive simulates pointer activity over the widget.
func (s *Session) Keepalive(ctx context.Context) error {
	return s.Eval(ctx, keepaliveJS, nil)
}

// Screenshot captures the current viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var shot []byte
	if err := chromedp.Run(s.browserCtx, chromedp.CaptureScreenshot(&shot)); err != nil {
		return nil, err
	}
	return shot, nil
}

// DragPath dispatches a trusted pointer gesture along the given path:
// button down at the first point, a move per intermediate point, button
// up at the last. Synthesizing events at the CDP level rather than via
// injected MouseEvent keeps isTrusted true on every event the site sees.
func (s *Session) DragPath(ctx context.Context, path []captcha.Point) error {
	present, err := s.WidgetPresent(ctx)
	if err != nil {
		return err
	}
	if !present || len(path) < 2 {
		return captcha.ErrWidgetNotFound
	}

	return chromedp.Run(s.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		start := path[0]
		err := input.DispatchMouseEvent(input.MousePressed, start.X, start.Y).
			WithButton(input.Left).
			WithClickCount(1).
			Do(ctx)
		if err != nil {
			return err
		}

		for _, p := range path[1:] {
			err := input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y).
				WithButton(input.Left).
				Do(ctx)
			if err != nil {
				return err
			}
		}

		end := path[len(path)-1]
		return input.DispatchMouseEvent(input.MouseReleased, end.X, end.Y).
			WithButton(input.Left).
			WithClickCount(1).
			Do(ctx)
	}))
}

// Reload refreshes the current page to obtain a fresh widget.
func (s *Session) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(s.browserCtx, chromedp.Reload())
}
