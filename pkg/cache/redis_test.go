package cache

import (
	"context"
	"errors"
	"testing"
)

func TestRedisRetryableClassification(t *testing.T) {
	if redisRetryable(nil) != nil {
		t.Error("nil error should pass through unchanged")
	}

	// Cancellation must abort the retry loop, not re-enter it.
	if IsRetryable(redisRetryable(context.Canceled)) {
		t.Error("context.Canceled should not be retryable")
	}
	if IsRetryable(redisRetryable(context.DeadlineExceeded)) {
		t.Error("context.DeadlineExceeded should not be retryable")
	}

	// Everything else is a transient backend failure.
	transient := errors.New("connection reset by peer")
	wrapped := redisRetryable(transient)
	if !IsRetryable(wrapped) {
		t.Error("backend errors should be retryable")
	}
	if !errors.Is(wrapped, transient) {
		t.Error("wrapping should preserve the underlying error")
	}
}

func TestRedisRetryableRetriesTransientFailures(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 2 {
			return redisRetryable(errors.New("broken pipe"))
		}
		return nil
	})
	if err != nil {
		t.Errorf("retry should recover from a transient failure: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
