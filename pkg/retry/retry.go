// Package retry retries startup dials and cache warm-ups with capped
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

// Config holds backoff settings
type Config struct {
	MaxRetries   int           // attempts after the first
	InitialDelay time.Duration // delay before the first retry
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool // +-25% randomness

	// RetryableErrors decides whether an error is worth another attempt.
	// Nil means IsRetryable.
	RetryableErrors func(error) bool
}

// DefaultConfig returns the general purpose backoff
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		Multiplier:      2.0,
		Jitter:          true,
		RetryableErrors: IsRetryable,
	}
}

// StoreConnectConfig is used when dialing Postgres, MongoDB and Redis at startup
func StoreConnectConfig() Config {
	config := DefaultConfig()
	config.MaxRetries = 5
	config.InitialDelay = 500 * time.Millisecond
	config.MaxDelay = 10 * time.Second
	return config
}

// CacheWarmupConfig is used for the initial candidate cache load
func CacheWarmupConfig() Config {
	config := DefaultConfig()
	config.InitialDelay = 2 * time.Second
	config.MaxDelay = 8 * time.Second
	return config
}

// permanentError stops the retry loop immediately
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying, e.g. a malformed URL
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn until it succeeds, fails permanently, or attempts run out
func Do(ctx context.Context, config Config, operation string, fn func() error) error {
	_, err := DoWithResult(ctx, config, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for functions that return a value
func DoWithResult[T any](ctx context.Context, config Config, operation string, fn func() (T, error)) (T, error) {
	var zero T
	retryable := config.RetryableErrors
	if retryable == nil {
		retryable = IsRetryable
	}
	log := logger.With(zap.String("operation", operation))

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		res, err := fn()
		if err == nil {
			if attempt > 0 {
				log.Info("Operation succeeded after retry", zap.Int("attempt", attempt))
			}
			return res, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if !retryable(err) {
			log.Warn("Non-retryable error encountered", zap.Error(err))
			return zero, err
		}
		if attempt >= config.MaxRetries {
			log.Error("Operation failed after all retries", zap.Int("max_retries", config.MaxRetries), zap.Error(err))
			return zero, fmt.Errorf("%s failed after %d retries: %w", operation, config.MaxRetries, err)
		}

		delay := calculateDelay(attempt, config)
		log.Warn("Operation failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateDelay computes initialDelay * multiplier^attempt, capped and jittered
func calculateDelay(attempt int, config Config) time.Duration {
	delay := math.Min(
		float64(config.InitialDelay)*math.Pow(config.Multiplier, float64(attempt)),
		float64(config.MaxDelay),
	)
	if config.Jitter {
		//nolint:gosec // G404: math/rand is sufficient for retry jitter
		delay *= 0.75 + rand.Float64()*0.5
	}
	return time.Duration(delay)
}

// IsRetryable reports whether err is worth another attempt.
// Context cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
