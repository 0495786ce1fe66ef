package stepgen

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	data, err := WithRetry(context.Background(), DefaultRetryConfig(), func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte(`{}`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{}` {
		t.Errorf("unexpected data: %q", data)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetryRetriesRetryableErrors(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	calls := 0
	data, err := WithRetry(context.Background(), cfg, func(ctx context.Context) ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, &GenerationError{Generator: "test", Err: errors.New("503"), Retryable: true}
		}
		return []byte(`ok`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("unexpected data: %q", data)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	calls := 0
	_, err := WithRetry(context.Background(), cfg, func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, &PayloadError{Generator: "test", Reason: "not json"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}

	var payloadErr *PayloadError
	if !errors.As(err, &payloadErr) {
		t.Errorf("expected PayloadError, got %T", err)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	calls := 0
	_, err := WithRetry(context.Background(), cfg, func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, &GenerationError{Generator: "test", Err: errors.New("timeout"), Retryable: true}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryZeroDelayBetweenAttempts(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 0,
		MaxDelay:     0,
		Multiplier:   2.0,
	}

	calls := 0
	_, err := WithRetry(context.Background(), cfg, func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, &GenerationError{Generator: "test", Err: errors.New("503"), Retryable: true}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls with zero delay, got %d", calls)
	}
}

func TestWithRetryZeroAttemptsRunsOnce(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  0,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	calls := 0
	_, err := WithRetry(context.Background(), cfg, func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, &GenerationError{Generator: "test", Err: errors.New("503"), Retryable: true}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call with retries disabled, got %d", calls)
	}
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  10,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := WithRetry(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, &GenerationError{Generator: "test", Err: errors.New("503"), Retryable: true}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls > 2 {
		t.Errorf("expected retry loop to stop on cancellation, got %d calls", calls)
	}
}
