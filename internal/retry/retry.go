// Package retry replays operations that failed with a transient fault.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
)

// Config defines retry behavior with exponential backoff.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0, spreads out writers that collided on the same project
}

// DefaultConfig suits short SQLite write transactions.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// IsRetryable reports whether err is an Unavailable fault. Business-rule
// rejections are never retried.
func IsRetryable(err error) bool {
	return err != nil && errors.Is(err, apperrors.ErrUnavailable)
}

// OnRetry is notified before each backoff wait.
type OnRetry func(attempt int, err error, wait time.Duration)

// Do runs fn until it succeeds, fails with a non-retryable error, or retries
// are exhausted. It respects context cancellation during waits.
func Do[T any](ctx context.Context, cfg *Config, notify OnRetry, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var result T
	var lastErr error
	delay := cfg.InitialDelay
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		result, lastErr = r, err
		if !IsRetryable(err) || attempt == cfg.MaxRetries {
			break
		}
		wait := applyJitter(delay, cfg.JitterFactor)
		if notify != nil {
			notify(attempt+1, err, wait)
		}
		select {
		case <-time.After(wait):
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
	return result, lastErr
}
