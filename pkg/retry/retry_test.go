package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr struct{ code int }

func (e statusErr) Error() string  { return "model error" }
func (e statusErr) StatusCode() int { return e.code }

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"429 status", statusErr{429}, true},
		{"500 status", statusErr{500}, false},
		{"rate limit message", errors.New("Rate limit exceeded"), true},
		{"too many requests", errors.New("429 Too Many Requests"), true},
		{"network error", errors.New("dial tcp: network error"), true},
		{"econnreset", errors.New("read: ECONNRESET"), true},
		{"timed out", errors.New("context deadline: timed out"), true},
		{"fatal", errors.New("invalid api key"), false},
		{"nil", nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsTransient(c.err))
		})
	}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("rate limit hit")
		}
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		return errors.New("network error")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsImmediatelyOnFatalError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		return errors.New("budget exceeded")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0
	err := Do(ctx, 3, time.Hour, func() error {
		attempts++
		return errors.New("rate limit")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
