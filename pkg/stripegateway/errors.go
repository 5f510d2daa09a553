package stripegateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v76"
)

// Kind classifies gateway failures for the consumer supervisor.
type Kind int

const (
	// KindNetworkTimeout covers transport failures and processor 5xx responses.
	KindNetworkTimeout Kind = iota
	// KindRateLimited is a processor 429.
	KindRateLimited
	// KindInvalidRequest is a processor-side validation rejection.
	KindInvalidRequest
	// KindAuth means the API key configuration is wrong.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidRequest:
		return "invalid_request"
	case KindAuth:
		return "auth_error"
	default:
		return "network_timeout"
	}
}

// Error is the typed failure surfaced by every gateway operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stripegateway: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether a retry can reasonably succeed. Rate limits and
// transport failures are transient; validation and auth failures are not.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindNetworkTimeout
}

// Terminal implements the supervisor contract consumed by pkg/rabbitmq.
func (e *Error) Terminal() bool { return !e.Retryable() }

// classify wraps a raw stripe-go error into the gateway taxonomy.
func classify(op string, err error) *Error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		switch {
		case sErr.HTTPStatusCode == http.StatusTooManyRequests || sErr.Code == stripe.ErrorCodeRateLimit:
			return &Error{Kind: KindRateLimited, Op: op, Err: err}
		// Stripe reports key problems as invalid_request_error with a 401,
		// so auth faults are detected by status code alone.
		case sErr.HTTPStatusCode == http.StatusUnauthorized ||
			sErr.HTTPStatusCode == http.StatusForbidden:
			return &Error{Kind: KindAuth, Op: op, Err: err}
		case sErr.HTTPStatusCode >= 500 || sErr.Type == stripe.ErrorTypeAPI:
			return &Error{Kind: KindNetworkTimeout, Op: op, Err: err}
		default:
			// Remaining 4xx responses are validation faults.
			return &Error{Kind: KindInvalidRequest, Op: op, Err: err}
		}
	}
	// Anything that never produced a processor response: DNS, TLS, timeouts.
	return &Error{Kind: KindNetworkTimeout, Op: op, Err: err}
}
