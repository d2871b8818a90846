package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultOracleURL is the 2captcha JSON API endpoint.
const DefaultOracleURL = "https://api.2captcha.com"

// taskComment tells the human (or model) worker what to click on.
const taskComment = "Click on the position where the puzzle piece should be placed"

// Coordinate is a point in the submitted image's coordinate space, as
// returned by the solving service.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Oracle is a client for the 2captcha coordinates API: submit an image,
// poll for the click target, report the outcome. It keeps no state
// between calls beyond the task ID handed back from Submit.
type Oracle struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
	log          *zap.Logger
}

// NewOracle creates an Oracle using the given API key. pollInterval and
// pollTimeout bound the getTaskResult loop.
func NewOracle(apiKey string, pollInterval, pollTimeout time.Duration, log *zap.Logger) *Oracle {
	return &Oracle{
		baseURL:      DefaultOracleURL,
		apiKey:       apiKey,
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		log:          log,
	}
}

// Submit uploads a base64-encoded PNG of the captcha and returns the
// task ID to poll. Returns ErrSubmitFailed if the service rejects it.
func (o *Oracle) Submit(ctx context.Context, imageB64 string) (int64, error) {
	payload := map[string]any{
		"clientKey": o.apiKey,
		"task": map[string]any{
			"type":    "CoordinatesTask",
			"body":    imageB64,
			"comment": taskComment,
		},
	}

	var resp struct {
		ErrorID          int    `json:"errorId"`
		ErrorDescription string `json:"errorDescription"`
		TaskID           int64  `json:"taskId"`
	}
	if err := o.post(ctx, "createTask", payload, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	if resp.ErrorID != 0 {
		o.log.Debug("solver rejected task",
			zap.Int("error_id", resp.ErrorID),
			zap.String("description", resp.ErrorDescription))
		return 0, fmt.Errorf("%w: %s", ErrSubmitFailed, resp.ErrorDescription)
	}
	return resp.TaskID, nil
}

// Poll waits for the task's answer, checking on a fixed interval up to
// the timeout ceiling. If keepalive is non-nil it is invoked before each
// poll to simulate user activity; a false return means the widget is
// gone and polling stops immediately with ErrWidgetExpired rather than
// burning the rest of the timeout.
func (o *Oracle) Poll(ctx context.Context, taskID int64, keepalive func(context.Context) bool) ([]Coordinate, error) {
	deadline := time.Now().Add(o.pollTimeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.pollInterval):
		}

		if keepalive != nil && !keepalive(ctx) {
			o.log.Debug("captcha expired while waiting for solver")
			return nil, ErrWidgetExpired
		}

		var resp struct {
			ErrorID          int    `json:"errorId"`
			ErrorDescription string `json:"errorDescription"`
			Status           string `json:"status"`
			Solution         struct {
				Coordinates []Coordinate `json:"coordinates"`
			} `json:"solution"`
		}
		if err := o.post(ctx, "getTaskResult", map[string]any{
			"clientKey": o.apiKey,
			"taskId":    taskID,
		}, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSolverError, err)
		}
		if resp.ErrorID != 0 {
			o.log.Debug("solver poll error",
				zap.Int("error_id", resp.ErrorID),
				zap.String("description", resp.ErrorDescription))
			return nil, fmt.Errorf("%w: %s", ErrSolverError, resp.ErrorDescription)
		}
		if resp.Status == "ready" {
			return resp.Solution.Coordinates, nil
		}
	}

	return nil, ErrSolverTimeout
}

// Report sends correct/incorrect feedback for a finished task. It is
// best-effort telemetry to the service: failures are logged and
// swallowed, never surfaced to the caller.
func (o *Oracle) Report(ctx context.Context, taskID int64, correct bool) {
	endpoint := "reportIncorrect"
	if correct {
		endpoint = "reportCorrect"
	}

	var resp struct {
		ErrorID int `json:"errorId"`
	}
	err := o.post(ctx, endpoint, map[string]any{
		"clientKey": o.apiKey,
		"taskId":    taskID,
	}, &resp)
	if err != nil {
		o.log.Debug("solver report failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
}

func (o *Oracle) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse %s response: %w", endpoint, err)
	}
	return nil
}
