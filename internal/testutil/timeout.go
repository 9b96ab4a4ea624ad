package testutil

import (
	"context"
	"testing"
	"time"
)

const (
	// DefaultTestBuffer is subtracted from the test deadline to leave time
	// for cleanup before the test times out.
	DefaultTestBuffer = 2 * time.Second

	// ShortTimeout bounds quick operations such as a single HTTP round trip
	// or waiting for a drill view to arrive.
	ShortTimeout = 5 * time.Second
)

// ContextWithTestDeadline creates a context that respects the test's deadline
// minus DefaultTestBuffer, falling back to fallback when the test has none.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    ctx, cancel := testutil.ContextWithTestDeadline(t, 10*time.Second)
//	    defer cancel()
//	    // ... test code using ctx
//	}
func ContextWithTestDeadline(t *testing.T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadlineBuffer(t, fallback, DefaultTestBuffer)
}

// ContextWithTestDeadlineBuffer is ContextWithTestDeadline with a custom
// buffer. If the adjusted deadline is already past, fallback is used.
func ContextWithTestDeadlineBuffer(t *testing.T, fallback, buffer time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	if deadline, ok := t.Deadline(); ok {
		adjusted := deadline.Add(-buffer)
		if time.Until(adjusted) > 0 && time.Until(adjusted) < fallback {
			return context.WithDeadline(context.Background(), adjusted)
		}
	}
	return context.WithTimeout(context.Background(), fallback)
}

// ShortContext returns a context bounded by ShortTimeout.
func ShortContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, ShortTimeout)
}
