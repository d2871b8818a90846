package captcha

import "errors"

// Per-attempt failure modes. All are recoverable: the solve loop
// converts each into a refresh-and-retry (or a plain retry, for submit
// failures) and never propagates them past the solver.
var (
	// ErrWidgetNotFound means the widget or one of its required
	// sub-elements is missing from the DOM.
	ErrWidgetNotFound = errors.New("captcha widget not found")

	// ErrLayoutUnavailable means the widget is present but its geometry
	// could not be read.
	ErrLayoutUnavailable = errors.New("captcha layout unavailable")

	// ErrWidgetExpired means the widget disappeared while waiting for
	// the solving service.
	ErrWidgetExpired = errors.New("captcha widget expired")

	// ErrSubmitFailed means the solving service rejected the task.
	ErrSubmitFailed = errors.New("solver task submission failed")

	// ErrSolverError means the solving service reported an error while
	// working the task.
	ErrSolverError = errors.New("solver reported an error")

	// ErrSolverTimeout means the solving service produced no answer
	// within the polling ceiling.
	ErrSolverTimeout = errors.New("solver timed out")

	// ErrDragRejected means the drag completed but the site still shows
	// the verification page.
	ErrDragRejected = errors.New("slider solution rejected")
)
