package timeout

import (
	"context"
	"testing"
	"time"
)

func TestWithDeadline_TimeoutCause(t *testing.T) {
	ctx, cancel := WithDeadline(context.Background(), 10*time.Millisecond)
	defer cancel()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context did not expire")
	}

	if !IsTimeout(ctx) {
		t.Error("deadline expiry should be distinguishable as a timeout")
	}
	if !IsTimeoutErr(context.Cause(ctx)) {
		t.Error("cause should carry ErrDeadlineElapsed")
	}
}

func TestWithDeadline_CallerCancellationWins(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := WithDeadline(parent, 5*time.Second)
	defer cancel()

	cancelParent()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by parent")
	}

	if IsTimeout(ctx) {
		t.Error("caller cancellation must not be reported as a timeout")
	}
}

// Even when the deadline has elapsed and the caller cancels in the same
// window, Done fires once and the recorded cause is deterministic:
// whichever source fired first wins and later triggers are no-ops.
func TestWithDeadline_FiresOnce(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := WithDeadline(parent, 10*time.Millisecond)
	defer cancel()

	<-ctx.Done()
	firstCause := context.Cause(ctx)

	cancelParent()
	cancel()

	if context.Cause(ctx) != firstCause {
		t.Error("cause changed after settlement; firing must be idempotent")
	}
	if !IsTimeout(ctx) {
		t.Error("duration path won the race and must be reported as timeout")
	}
}

func TestWithDeadline_EarlySettlementReleasesTimer(t *testing.T) {
	ctx, cancel := WithDeadline(context.Background(), 5*time.Second)
	cancel()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("cancel should settle the context immediately")
	}

	if IsTimeout(ctx) {
		t.Error("explicit cancel must not be classified as timeout")
	}
}
