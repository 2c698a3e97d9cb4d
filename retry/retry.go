// Package retry holds the backoff schedule and the per-attempt decision
// table used when calling the generative service.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Defaults applied by DefaultPolicy.
const (
	DefaultMaxRetries = 5
	DefaultBase       = time.Second
	DefaultMaxJitter  = time.Second
)

// Policy configures exponential backoff with additive jitter.
type Policy struct {
	// MaxRetries is the total number of attempts, including the first.
	MaxRetries int
	Base       time.Duration
	MaxJitter  time.Duration

	// Jitter returns a duration in [0, max). Nil uses math/rand.
	Jitter func(max time.Duration) time.Duration
}

// DefaultPolicy returns five attempts with 1s base and up to 1s jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Base:       DefaultBase,
		MaxJitter:  DefaultMaxJitter,
	}
}

// Attempts returns the attempt budget, never less than one.
func (p Policy) Attempts() int {
	return max(1, p.MaxRetries)
}

// MinDelay returns 2^attempt * Base. attempt is zero-indexed.
func (p Policy) MinDelay(attempt int) time.Duration {
	return (time.Duration(1) << attempt) * p.Base
}

// Delay returns MinDelay(attempt) plus jitter in [0, MaxJitter).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.MinDelay(attempt)
	if p.MaxJitter <= 0 {
		return d
	}
	if p.Jitter != nil {
		return d + p.Jitter(p.MaxJitter)
	}
	return d + rand.N(p.MaxJitter)
}

// Outcome classifies the result of one attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRateLimited
	OutcomeNetworkError
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Action is what the caller does next.
type Action int

const (
	// ActionSucceed returns the attempt's result.
	ActionSucceed Action = iota
	// ActionRetry waits Decision.Wait and tries again.
	ActionRetry
	// ActionExhausted gives up on a retryable outcome.
	ActionExhausted
	// ActionFail gives up on a non-retryable outcome.
	ActionFail
)

func (a Action) String() string {
	switch a {
	case ActionSucceed:
		return "succeed"
	case ActionRetry:
		return "retry"
	case ActionExhausted:
		return "exhausted"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Decision is the transition taken after an attempt.
type Decision struct {
	Action Action
	Wait   time.Duration
}

// Decide maps the outcome of a zero-indexed attempt to the next step.
// Rate limits and network errors are retried until the attempt budget is
// spent; anything else ends the loop.
func (p Policy) Decide(attempt int, o Outcome) Decision {
	switch o {
	case OutcomeSuccess:
		return Decision{Action: ActionSucceed}
	case OutcomeRateLimited, OutcomeNetworkError:
		if attempt < p.Attempts()-1 {
			return Decision{Action: ActionRetry, Wait: p.Delay(attempt)}
		}
		return Decision{Action: ActionExhausted}
	default:
		return Decision{Action: ActionFail}
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
