package database

import (
	"context"
	"time"
)

// WithRetry runs fn up to attempts times, backing off between tries.
// Meant for transient storage/cache faults at the collaborator boundary;
// business errors should not pass through here. The last error is returned
// once attempts are exhausted or the context is done.
func WithRetry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
