package captcha

import (
	"context"
	"time"
)

// Browser is the control seam between the solve loop and the browser
// automation layer. Every operation is a typed command; the opaque
// scripting payloads that implement them live with the implementation.
//
// Probe results follow the same convention throughout: a nil pointer
// with a nil error means the widget (or a required sub-element) is
// absent, which is an expected state, not a transport failure. Geometry
// must never be cached across calls: a refresh replaces the widget.
type Browser interface {
	// WidgetPresent reports whether the slider widget is in the DOM.
	WidgetPresent(ctx context.Context) (bool, error)

	// ProbeBounds returns the combined bounding box of the captcha
	// container and slider, for screenshot cropping.
	ProbeBounds(ctx context.Context) (*Bounds, error)

	// ProbeLayout returns the live geometry of the widget's
	// sub-elements, for drag computation.
	ProbeLayout(ctx context.Context) (*Layout, error)

	// DismissOverlays closes modals (language picker, promos) that can
	// cover the widget. Fire-and-forget; failure is not an error state.
	DismissOverlays(ctx context.Context) error

	// Keepalive simulates pointer activity over the widget so it does
	// not expire while we wait on the solving service.
	Keepalive(ctx context.Context) error

	// Screenshot captures the full page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// DragPath performs a pointer-down / moves / pointer-up gesture
	// along the given trajectory. Returns ErrWidgetNotFound if the
	// slider is gone before the gesture starts.
	DragPath(ctx context.Context, path []Point) error

	// Reload navigates to the current URL to obtain a fresh widget.
	Reload(ctx context.Context) error

	// VerificationShowing reports whether the page still displays the
	// verification interstitial.
	VerificationShowing(ctx context.Context) (bool, error)
}

// Config holds the solve-loop tunables. Orderings that matter:
// WidgetWait < PollTimeout, and PostRefreshSettle > ModalSettle.
type Config struct {
	MaxAttempts       int
	WidgetWait        time.Duration
	PollInterval      time.Duration
	PollTimeout       time.Duration
	PostDragSettle    time.Duration
	PostRefreshSettle time.Duration
	ModalSettle       time.Duration
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       8,
		WidgetWait:        15 * time.Second,
		PollInterval:      2 * time.Second,
		PollTimeout:       60 * time.Second,
		PostDragSettle:    3 * time.Second,
		PostRefreshSettle: 4 * time.Second,
		ModalSettle:       500 * time.Millisecond,
	}
}
