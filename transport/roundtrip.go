package transport

import (
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/tranquility/retry"
	"go.uber.org/zap"
)

// RoundTripper wraps next so that 429 responses and network errors are
// retried with the client's policy. It lets SDK-based clients share the
// same retry schedule as Send. Requests whose body cannot be replayed are
// sent once. A nil next uses http.DefaultTransport.
func (c *Client) RoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &roundTripper{client: c, next: next}
}

type roundTripper struct {
	client *Client
	next   http.RoundTripper
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	log := rt.client.logger.With(zap.String("url", redact(req.URL.String())))
	replayable := req.Body == nil || req.GetBody != nil

	for attempt := 0; ; attempt++ {
		r := req
		if attempt > 0 && req.Body != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("transport: rewind body: %w", err)
			}
			r = req.Clone(ctx)
			r.Body = body
		}

		resp, err := rt.next.RoundTrip(r)
		if ctx.Err() != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, ctx.Err()
		}

		outcome := retry.OutcomeSuccess
		switch {
		case err != nil:
			outcome = retry.OutcomeNetworkError
		case resp.StatusCode == http.StatusTooManyRequests:
			outcome = retry.OutcomeRateLimited
		}
		if outcome == retry.OutcomeSuccess || !replayable {
			return resp, err
		}

		d := rt.client.policy.Decide(attempt, outcome)
		if d.Action != retry.ActionRetry {
			log.Error("retries exhausted", zap.Int("attempts", attempt+1), zap.Stringer("outcome", outcome))
			if resp != nil {
				resp.Body.Close()
			}
			return nil, exhausted(outcome, attempt+1, errorFor(resp, err))
		}

		log.Warn("retrying request",
			zap.Int("attempt", attempt+1),
			zap.Stringer("outcome", outcome),
			zap.Duration("wait", d.Wait))
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if err := rt.client.sleep(ctx, d.Wait); err != nil {
			return nil, err
		}
	}
}

func errorFor(resp *http.Response, err error) error {
	if err != nil {
		return err
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
}
