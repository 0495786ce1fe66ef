package stepgen

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"
)

// RetryConfig configures retry behavior for generation calls
type RetryConfig struct {
	MaxAttempts  int           // Maximum number of attempts (including first)
	InitialDelay time.Duration // Initial delay between retries
	MaxDelay     time.Duration // Maximum delay between retries
	Multiplier   float64       // Backoff multiplier
}

// DefaultRetryConfig returns sensible retry defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryableFunc is a function that can be retried, producing raw model output
type RetryableFunc func(ctx context.Context) ([]byte, error)

// WithRetry executes fn with exponential backoff retry logic.
// MaxAttempts below 1 means a single attempt with no retries.
func WithRetry(ctx context.Context, config RetryConfig, fn RetryableFunc) ([]byte, error) {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		// Check context before each attempt
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, err := fn(ctx)
		if err == nil {
			return data, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}

		if attempt == attempts {
			break
		}

		// Jitter the delay by ±20% to prevent thundering herd
		sleepTime := time.Duration(float64(delay) * (0.8 + rand.Float64()*0.4))

		log.Printf("[Retry] Attempt %d/%d failed: %v, retrying in %v",
			attempt, attempts, err, sleepTime)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleepTime):
		}

		delay = time.Duration(float64(delay) * config.Multiplier)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return nil, errors.Join(errors.New("all retry attempts failed"), lastErr)
}
