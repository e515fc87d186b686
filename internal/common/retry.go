package common

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/llm-pipeline/internal/service"
)

// Default retry policy for remote LLM calls.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 4 * time.Second
	DefaultMaxDelay     = 60 * time.Second
	DefaultMultiplier   = 4.0
)

// DefaultRetryOptions returns the policy used around provider calls:
// three attempts, waiting 4s then 16s, never more than 60s.
func DefaultRetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// WithRetry executes operation, retrying rate-limit and timeout failures
// with exponential backoff. Any other failure is returned immediately.
// When all attempts fail the last error is returned as a *RetryableError
// so callers can still see its category.
func WithRetry[T any](ctx context.Context, operation func(context.Context) (T, error), opts service.RetryOptions) (T, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = DefaultMultiplier
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	delay := min(opts.InitialDelay, opts.MaxDelay)

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}

		kind := Classify(err)
		if !kind.Retryable() {
			return zero, err
		}

		retryErr := err
		if _, ok := err.(*RetryableError); !ok {
			retryErr = &RetryableError{Err: err, Kind: kind}
		}

		if attempt >= opts.MaxAttempts {
			return zero, retryErr
		}

		logger.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"wait", delay,
			"kind", kind.String(),
			"error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * opts.Multiplier)
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}
	}
}
