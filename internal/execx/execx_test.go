package execx

import (
	"context"
	"testing"
	"time"
)

func TestWithDeadlineAddsDefault(t *testing.T) {
	ctx, cancel := withDeadline(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline on a bare context")
	}
	if remaining := time.Until(deadline); remaining > DefaultTimeout || remaining < DefaultTimeout-time.Minute {
		t.Fatalf("deadline %v away, want about %v", remaining, DefaultTimeout)
	}
}

func TestWithDeadlineKeepsCallerDeadline(t *testing.T) {
	parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
	defer parentCancel()
	want, _ := parent.Deadline()

	ctx, cancel := withDeadline(parent)
	defer cancel()
	got, ok := ctx.Deadline()
	if !ok || !got.Equal(want) {
		t.Fatalf("deadline = %v, want the caller's %v", got, want)
	}
}

func TestRunStopsOnExpiredContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond)

	if _, _, err := Run(ctx, "sleep", "30"); err == nil {
		t.Fatal("expected an error once the context expired")
	}
}
