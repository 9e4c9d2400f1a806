package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// ErrMissingCredentials is returned when a provider's API key is not configured
var ErrMissingCredentials = errors.New("missing provider credentials")

// StatusError is a non-200 response from a provider API
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retriable reports whether the status indicates a transient condition
func (e *StatusError) Retriable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Retriable reports whether a failed provider call may succeed if repeated:
// timeouts, transport errors, rate limiting and server errors. Explicit
// rejections (4xx), missing credentials and caller cancellation are final.
func Retriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingCredentials) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retriable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
