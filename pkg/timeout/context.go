package timeout

import (
	"context"
	"errors"
	"time"
)

// ErrDeadlineElapsed is the cancellation cause recorded when the
// request timeout fires. It is distinguishable from caller-driven
// cancellation so callers can apply timeout-specific fallback policy.
var ErrDeadlineElapsed = errors.New("request timeout elapsed")

// WithDeadline derives a context that is cancelled when either the
// parent is cancelled or the duration elapses, whichever comes first.
// Cancellation fires exactly once; when the duration path wins the race
// the context's cause is ErrDeadlineElapsed. The returned cancel must
// be called on settlement to release the timer.
func WithDeadline(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeoutCause(parent, d, ErrDeadlineElapsed)
}

// IsTimeout reports whether the context was cancelled by the timeout
// path specifically, rather than by the caller.
func IsTimeout(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrDeadlineElapsed)
}

// IsTimeoutErr reports whether err carries the timeout cause.
func IsTimeoutErr(err error) bool {
	return errors.Is(err, ErrDeadlineElapsed)
}
