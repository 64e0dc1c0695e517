package embedder

import (
	"context"
	"errors"
	"time"

	"github.com/Sridattasai18/repologic/pkg/types"
)

// RetryConfig configures exponential backoff retry behavior. It is an
// explicit policy object injected into the Client rather than implicit
// control flow inside the providers.
type RetryConfig struct {
	MaxRetries int           // Maximum number of attempts per sub-batch
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
	Multiplier float64       // Exponential backoff multiplier

	// Retryable decides which error classes are worth another attempt.
	// Nil means the default transient classification.
	Retryable func(error) bool
}

// DefaultRetryConfig returns sensible defaults for API retry
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
		Multiplier: BackoffMultiplier,
		Retryable:  IsTransient,
	}
}

// IsTransient reports whether an embedding error is worth retrying:
// rate limits and transport-level failures are, validation errors are not.
func IsTransient(err error) bool {
	if errors.Is(err, types.ErrEmbeddingRateLimited) {
		return true
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrBatchTooLarge) {
		return false
	}
	var transient interface{ Temporary() bool }
	if errors.As(err, &transient) {
		return transient.Temporary()
	}
	return false
}

// retryWithBackoff executes a function with exponential backoff retry logic.
// Non-retryable errors and context cancellation return immediately.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay
	retryable := config.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if !retryable(err) {
			return zero, err
		}

		// Apply exponential backoff before next retry
		if attempt < config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
