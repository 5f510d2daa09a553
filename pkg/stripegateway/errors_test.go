package stripegateway

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stripe/stripe-go/v76"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		wantKind  Kind
		retryable bool
	}{
		{
			"rate limited by status",
			&stripe.Error{HTTPStatusCode: http.StatusTooManyRequests},
			KindRateLimited, true,
		},
		{
			"rate limited by code",
			&stripe.Error{Code: stripe.ErrorCodeRateLimit},
			KindRateLimited, true,
		},
		{
			"bad api key",
			&stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusUnauthorized},
			KindAuth, false,
		},
		{
			"forbidden",
			&stripe.Error{HTTPStatusCode: http.StatusForbidden},
			KindAuth, false,
		},
		{
			"processor 5xx",
			&stripe.Error{HTTPStatusCode: http.StatusBadGateway},
			KindNetworkTimeout, true,
		},
		{
			"api error type",
			&stripe.Error{Type: stripe.ErrorTypeAPI},
			KindNetworkTimeout, true,
		},
		{
			"validation 400",
			&stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusBadRequest},
			KindInvalidRequest, false,
		},
		{
			"transport failure",
			errors.New("dial tcp: i/o timeout"),
			KindNetworkTimeout, true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify("test_op", tc.err)
			if got.Kind != tc.wantKind {
				t.Fatalf("kind = %v, want %v", got.Kind, tc.wantKind)
			}
			if got.Retryable() != tc.retryable {
				t.Fatalf("retryable = %v, want %v", got.Retryable(), tc.retryable)
			}
			if got.Terminal() == tc.retryable {
				t.Fatal("Terminal must be the inverse of Retryable")
			}
			if !errors.Is(got, tc.err) {
				t.Fatal("classified error must wrap the cause")
			}
		})
	}
}
