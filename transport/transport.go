// Package transport posts JSON to the generative service with bounded
// retries on rate limiting and network failure.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/retry"
	"go.uber.org/zap"
)

// Interface compliance check.
var _ tranquility.Transport = (*Client)(nil)

// StatusError is a non-retryable HTTP failure from the upstream.
type StatusError struct {
	StatusCode int
	// Message is the upstream error message, or the status text when the
	// body carries none. It is for logs only.
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: HTTP %d: %s", e.StatusCode, e.Message)
}

// Is makes every StatusError match tranquility.ErrFatal.
func (e *StatusError) Is(target error) bool {
	return target == tranquility.ErrFatal
}

// Client implements [tranquility.Transport].
type Client struct {
	httpClient *http.Client
	policy     retry.Policy
	sleep      func(context.Context, time.Duration) error
	logger     *zap.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for each attempt.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPolicy replaces the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithMaxRetries sets the attempt budget and keeps the rest of the policy.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.policy.MaxRetries = n }
}

// WithSleep replaces the backoff wait. Tests use it to record waits
// instead of sleeping.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithLogger sets the logger used to report retries.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a [Client] with the default retry policy.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		policy:     retry.DefaultPolicy(),
		sleep:      retry.Sleep,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send POSTs payload as JSON to rawURL and returns the JSON response body.
func (c *Client) Send(ctx context.Context, rawURL string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("transport: encode payload: %v: %w", err, tranquility.ErrValidation)
	}
	log := c.logger.With(zap.String("url", redact(rawURL)))

	var lastErr error
	for attempt := 0; ; attempt++ {
		raw, outcome, err := c.attempt(ctx, rawURL, body)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			lastErr = err
		}

		d := c.policy.Decide(attempt, outcome)
		switch d.Action {
		case retry.ActionSucceed:
			return raw, nil
		case retry.ActionFail:
			return nil, err
		case retry.ActionExhausted:
			log.Error("retries exhausted",
				zap.Int("attempts", attempt+1),
				zap.Stringer("outcome", outcome),
				zap.Error(lastErr))
			return nil, exhausted(outcome, attempt+1, lastErr)
		case retry.ActionRetry:
			log.Warn("retrying request",
				zap.Int("attempt", attempt+1),
				zap.Stringer("outcome", outcome),
				zap.Duration("wait", d.Wait),
				zap.Error(err))
			if err := c.sleep(ctx, d.Wait); err != nil {
				return nil, err
			}
		}
	}
}

func (c *Client) attempt(ctx context.Context, rawURL string, body []byte) (json.RawMessage, retry.Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, retry.OutcomeFatal, fmt.Errorf("transport: %v: %w", err, tranquility.ErrFatal)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redact(ue.URL)
		}
		return nil, retry.OutcomeNetworkError, fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.OutcomeNetworkError, fmt.Errorf("transport: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retry.OutcomeRateLimited, parseHTTPError(resp.StatusCode, data)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, retry.OutcomeFatal, parseHTTPError(resp.StatusCode, data)
	}

	if !json.Valid(data) {
		return nil, retry.OutcomeFatal, fmt.Errorf("transport: response is not JSON: %w", tranquility.ErrFatal)
	}
	return json.RawMessage(data), retry.OutcomeSuccess, nil
}

func exhausted(o retry.Outcome, attempts int, last error) error {
	kind := tranquility.ErrNetworkExhausted
	if o == retry.OutcomeRateLimited {
		kind = tranquility.ErrRateLimitExhausted
	}
	return fmt.Errorf("transport: gave up after %d attempts (last: %v): %w", attempts, last, kind)
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func parseHTTPError(status int, body []byte) *StatusError {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &StatusError{StatusCode: status, Message: apiErr.Error.Message}
	}
	return &StatusError{StatusCode: status, Message: http.StatusText(status)}
}

// redact strips the query string, which carries the API key.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
