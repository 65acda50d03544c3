package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "vkstats/pkg/errors"
	"vkstats/pkg/logger"
)

func zeroDelayConfig() *Config {
	return &Config{
		MaxAttempts: 0,
		Backoff:     &ConstantBackoff{Delay: 0},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNop(),
	}
}

func TestConstantBackoff(t *testing.T) {
	backoff := &ConstantBackoff{Delay: 10 * time.Second}

	for attempt := 1; attempt <= 5; attempt++ {
		if delay := backoff.NextDelay(attempt); delay != 10*time.Second {
			t.Errorf("attempt %d: expected constant 10s delay, got %v", attempt, delay)
		}
	}
	if delay := backoff.NextDelay(0); delay != 0 {
		t.Errorf("expected zero delay for attempt 0, got %v", delay)
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{5, 1 * time.Second}, // capped at max
	}

	for _, test := range tests {
		if delay := backoff.NextDelay(test.attempt); delay != test.expected {
			t.Errorf("attempt %d: expected %v, got %v", test.attempt, test.expected, delay)
		}
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeNetwork, "connection refused")
		}
		return nil
	}

	if err := Do(op, zeroDelayConfig()); err != nil {
		t.Errorf("expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryUnlimitedAttempts(t *testing.T) {
	// MaxAttempts 0 means unlimited: far more failures than any bounded
	// policy would allow.
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 50 {
			return errs.New(errs.ErrorTypeNetwork, "still down")
		}
		return nil
	}

	if err := Do(op, zeroDelayConfig()); err != nil {
		t.Errorf("expected eventual success, got error: %v", err)
	}
	if attempts != 50 {
		t.Errorf("expected 50 attempts, got %d", attempts)
	}
}

func TestRetryMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errs.New(errs.ErrorTypeNetwork, "persistent failure")
	}

	cfg := zeroDelayConfig()
	cfg.MaxAttempts = 3

	if err := Do(op, cfg); err == nil {
		t.Error("expected error when max attempts exceeded")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryNonRetryableErrorStopsImmediately(t *testing.T) {
	attempts := 0
	apiErr := errs.NewWithCode(errs.ErrorTypeAPI, 5, "bad token")
	op := func() error {
		attempts++
		return apiErr
	}

	err := Do(op, zeroDelayConfig())
	var surfaced *errs.Error
	if !errors.As(err, &surfaced) || surfaced.Code != 5 {
		t.Errorf("expected the API error to surface unchanged, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt for a non-retryable error, got %d", attempts)
	}
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := zeroDelayConfig()
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Minute}

	attempts := 0
	op := func() error {
		attempts++
		cancel()
		return errs.New(errs.ErrorTypeNetwork, "down")
	}

	if err := Do(op, cfg); err == nil {
		t.Error("expected cancellation error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errs.New(errs.ErrorTypeNetwork, "flaky")
		}
		return 42, nil
	}

	result, err := DoWithResult(op, zeroDelayConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
}
