package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	k8serrors "k8s.io/apimachinery/pkg/api/errors"
)

// RetryConfig controls WithRetry's backoff behavior.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns conservative retry settings suitable for
// orchestrator API calls made from the operation executor.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// WithRetry retries fn on transient errors (5xx, rate limiting, request
// timeout) with exponential backoff. Non-retryable errors (4xx other
// than 429/408, context cancellation) return immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *k8serrors.StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.Status().Code
		if code >= 400 && code < 500 {
			return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
		}
		return code >= 500
	}

	return true
}

// IsNotFound reports whether err is a Kubernetes NotFound error.
func IsNotFound(err error) bool {
	return k8serrors.IsNotFound(err)
}

// IsForbidden reports whether err is a Kubernetes Forbidden error.
func IsForbidden(err error) bool {
	return k8serrors.IsForbidden(err)
}

// IsConflict reports whether err is a Kubernetes Conflict error.
func IsConflict(err error) bool {
	return k8serrors.IsConflict(err)
}
