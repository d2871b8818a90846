package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// antiBotErrorCode is Shopee's in-band error for requests its anti-bot
// layer refused, distinct from a plain expired session.
const antiBotErrorCode = 90309999

// Fatal fetch outcomes. Anything else either succeeds or is a
// GenericAPIError: logged, but the response is still handed back.
var (
	// ErrSessionExpired means the stored cookies no longer authenticate.
	ErrSessionExpired = errors.New("session expired, run 'shopee login' to re-authenticate")

	// ErrAntiBotBlocked means the anti-bot layer refused the request.
	ErrAntiBotBlocked = errors.New("anti-bot challenge triggered, try again or re-login")
)

// APIError is an in-band error Shopee returned alongside a usable
// response body. Callers get both.
type APIError struct {
	Code int64
	Msg  string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("API error %d: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("API error code: %d", e.Code)
}

// fetchResult is the shape returned by the in-page fetch snippet.
type fetchResult struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// apiEnvelope is the common error envelope of Shopee API responses.
type apiEnvelope struct {
	Error    int64  `json:"error"`
	ErrorMsg string `json:"error_msg"`
}

// Get performs a GET against the Shopee API through an in-page fetch,
// so the request carries the browser's cookies, TLS fingerprint, and
// anti-bot headers. Returns the raw JSON body.
func (s *Session) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := s.cfg.APIBase + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return s.fetch(ctx, u, http.MethodGet, "")
}

// Post performs a POST with a JSON payload through an in-page fetch.
func (s *Session) Post(ctx context.Context, path string, payload any) ([]byte, error) {
	body := "null"
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = string(data)
	}
	return s.fetch(ctx, s.cfg.APIBase+path, http.MethodPost, body)
}

// fetch executes fetch() inside the page and classifies the result.
func (s *Session) fetch(ctx context.Context, fetchURL, method, body string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var js string
	if method == http.MethodGet {
		js = fmt.Sprintf(`
			(async () => {
				const resp = await fetch(%q);
				const text = await resp.text();
				return {status: resp.status, body: text};
			})()`, fetchURL)
	} else {
		js = fmt.Sprintf(`
			(async () => {
				const resp = await fetch(%q, {
					method: %q,
					headers: {"Content-Type": "application/json"},
					body: %s
				});
				const text = await resp.text();
				return {status: resp.status, body: text};
			})()`, fetchURL, method, body)
	}

	var result fetchResult
	err := chromedp.Run(s.browserCtx, chromedp.Evaluate(js, &result,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		return nil, fmt.Errorf("in-page fetch: %w", err)
	}

	if err := Classify(result.Status, result.Body); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			// Reported but not fatal: the caller still gets the body
			s.log.Warn("shopee API error",
				zap.Int64("code", apiErr.Code),
				zap.String("msg", apiErr.Msg))
			return []byte(result.Body), nil
		}
		return nil, err
	}

	return []byte(result.Body), nil
}

// Classify maps an HTTP status and response body onto the fetch error
// taxonomy: nil for success, ErrSessionExpired / ErrAntiBotBlocked for
// fatal outcomes, or *APIError for an in-band error the caller can
// still use the response despite.
func Classify(status int, body string) error {
	var env apiEnvelope
	parsed := json.Unmarshal([]byte(body), &env) == nil

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if parsed && env.Error == antiBotErrorCode {
			return ErrAntiBotBlocked
		}
		return ErrSessionExpired
	}

	if !parsed {
		return &APIError{Code: -1, Msg: "unparseable response body"}
	}
	if env.Error != 0 {
		if env.Error == antiBotErrorCode {
			return ErrAntiBotBlocked
		}
		return &APIError{Code: env.Error, Msg: env.ErrorMsg}
	}
	return nil
}
