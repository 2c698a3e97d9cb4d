package tranquility

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates caller input failed validation.
	ErrValidation = errors.New("validation error")

	// ErrEmptyCompletion indicates the model answered without usable text.
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrRateLimitExhausted indicates the upstream kept answering 429 until
	// the retry budget ran out.
	ErrRateLimitExhausted = errors.New("rate limit retries exhausted")

	// ErrNetworkExhausted indicates every attempt failed at the network level.
	ErrNetworkExhausted = errors.New("network retries exhausted")

	// ErrFatal indicates a non-retryable upstream failure.
	ErrFatal = errors.New("fatal upstream error")

	// ErrSchemaParse indicates a structured reply did not match its schema.
	ErrSchemaParse = errors.New("schema parse error")

	// ErrBusy indicates a submission was attempted while another is in flight.
	ErrBusy = errors.New("session busy")

	// ErrSessionClosed indicates the session was closed.
	ErrSessionClosed = errors.New("session closed")
)

// GenericFailureMessage is shown to callers when the underlying failure must
// not be disclosed.
const GenericFailureMessage = "Something went wrong while analyzing your message. Please try again."

// Failure is an error whose Error text is safe to show to an end user. The
// wrapped error keeps the real cause available to errors.Is and to logs.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// Sanitize wraps err in a Failure carrying the generic message. Errors that
// are already sanitized are returned unchanged.
func Sanitize(err error) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return &Failure{Message: GenericFailureMessage, Err: err}
}

// PublicMessage returns text describing err that may be shown to a user.
func PublicMessage(err error) string {
	var f *Failure
	switch {
	case err == nil:
		return ""
	case errors.As(err, &f):
		return f.Message
	case errors.Is(err, ErrValidation):
		return strings.TrimSuffix(err.Error(), ": "+ErrValidation.Error())
	case errors.Is(err, ErrBusy):
		return "Still working on your previous message."
	case errors.Is(err, ErrSessionClosed):
		return "This conversation has ended."
	default:
		return GenericFailureMessage
	}
}
