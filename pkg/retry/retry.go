package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError is a non-2xx HTTP response from an upstream API
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	body := e.Body
	if body == "" {
		body = "empty response body"
	}
	return fmt.Sprintf("%s API HTTP %d: %s", e.Service, e.Code, body)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// LinearBackOff waits Step × attempt between attempts
type LinearBackOff struct {
	Step    time.Duration
	attempt int
}

// NextBackOff implements backoff.BackOff
func (b *LinearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.Step
}

// Reset implements backoff.BackOff
func (b *LinearBackOff) Reset() {
	b.attempt = 0
}

// Do runs op up to maxAttempts times with linear backoff.
// Errors that IsRetryableError rejects stop immediately.
func Do(ctx context.Context, maxAttempts int, step time.Duration, op func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var b backoff.BackOff = &LinearBackOff{Step: step}
	b = backoff.WithMaxRetries(b, uint64(maxAttempts-1))
	b = backoff.WithContext(b, ctx)

	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// IsRetryableError checks if an error should trigger a retry
// Retryable errors include: timeouts, dropped connections, retryable HTTP statuses
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "server closed") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	return false
}
