package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetry(t *testing.T) {
	t.Run("FirstTrySucceeds", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), 3, time.Millisecond, func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("RecoversAfterFailures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("ExhaustedReturnsLastError", func(t *testing.T) {
		want := errors.New("persistent")
		calls := 0
		err := WithRetry(context.Background(), 2, time.Millisecond, func() error {
			calls++
			return want
		})
		if !errors.Is(err, want) {
			t.Fatalf("err = %v, want %v", err, want)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("CancelledContextStopsRetrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := WithRetry(ctx, 5, time.Minute, func() error {
			calls++
			return errors.New("transient")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}
