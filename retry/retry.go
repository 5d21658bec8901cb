// ABOUTME: This file implements a bounded retry combinator with a per-attempt timeout
// ABOUTME: Provides resilient error handling for pipeline step execution
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Config controls retry behavior. An operation runs MaxRetries+1 times at
// most; each attempt races against Timeout and a timed-out attempt counts as
// a failure like any other.
type Config struct {
	MaxRetries int
	Timeout    time.Duration
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultConfig returns the step defaults: 3 retries, 5 minute attempt
// timeout, exponential backoff starting at one second.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Timeout:    5 * time.Minute,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// ErrAttemptTimeout marks an attempt that lost the race against the
// per-attempt timer. The in-flight result is discarded; retried attempts
// are independent.
var ErrAttemptTimeout = fmt.Errorf("attempt timed out")

// Do executes op with bounded retries and a per-attempt timeout. It returns
// the number of attempts made and the last error; a permanently failing
// operation makes exactly MaxRetries+1 attempts.
func Do(ctx context.Context, cfg Config, logger *slog.Logger, op func(ctx context.Context) error) (int, error) {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}

	maxAttempts := cfg.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return attempt - 1, fmt.Errorf("retry cancelled: %w", ctx.Err())
		}

		start := time.Now()
		lastErr = runAttempt(ctx, cfg.Timeout, op)
		elapsed := time.Since(start)

		if lastErr == nil {
			if attempt > 1 {
				logger.InfoContext(ctx, "operation succeeded after retry",
					"attempt", attempt,
					"attempt_duration_ms", elapsed.Milliseconds())
			}
			return attempt, nil
		}

		logger.WarnContext(ctx, "operation attempt failed",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", lastErr,
			"attempt_duration_ms", elapsed.Milliseconds())

		if attempt == maxAttempts {
			break
		}

		delay := backoffDelay(cfg, attempt)
		select {
		case <-ctx.Done():
			return attempt, fmt.Errorf("retry cancelled during backoff: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return maxAttempts, fmt.Errorf("operation failed after %d attempts: %w", maxAttempts, lastErr)
}

// runAttempt races one invocation of op against the per-attempt timeout.
// The operation receives a context that is cancelled when the race is lost,
// and a losing attempt's eventual result is discarded.
func runAttempt(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error) error {
	if timeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(attemptCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w after %s", ErrAttemptTimeout, timeout)
	}
}

// backoffDelay grows as BaseDelay * 2^(attempt-1), capped at MaxDelay.
func backoffDelay(cfg Config, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
