// Package retry classifies LLM-layer errors as transient or fatal and
// retries transient ones with exponential backoff (C3).
package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// transientMarkers are substrings that, if present in an error's message,
// mark it as retryable. Matching is case-insensitive.
var transientMarkers = []string{
	"rate limit",
	"too many requests",
	"response failed",
	"network error",
	"timed out",
	"etimedout",
	"econnreset",
}

// StatusCoder is implemented by errors that carry an HTTP-ish status code,
// such as the LLM client's model_error kind.
type StatusCoder interface {
	StatusCode() int
}

// IsTransient classifies err per spec §4.2: a 429 status, or a message
// matching one of the known rate-limit / network markers.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var sc StatusCoder
	if errors.As(err, &sc) && sc.StatusCode() == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Do runs fn up to maxAttempts times, retrying only while the error is
// transient. base is the initial backoff delay; subsequent delays are
// base * 2^(attempt-1), matching spec §4.2. A non-transient error returns
// immediately without further attempts. onRetry, if non-nil, is called
// before each wait with the attempt number (1-indexed) that just failed and
// the delay about to be slept.
func Do(ctx context.Context, maxAttempts int, base time.Duration, fn func() error, onRetry func(attempt int, delay time.Duration, err error)) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		delay := backoffDelay(base, attempt)
		if onRetry != nil {
			onRetry(attempt, delay, lastErr)
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return lastErr
}

// backoffDelay computes base * 2^(attempt-1) using cenkalti/backoff's
// exponential curve so jitter/multiplier conventions stay consistent with
// the rest of the ecosystem, pinned to the deterministic bases the spec
// calls out (30s/15s) rather than backoff's default randomised jitter.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = base * (1 << 10)
	b.MaxElapsedTime = 0
	b.Reset()
	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}
