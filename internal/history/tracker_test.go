package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestTracker(t *testing.T) (*Tracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	tracker := NewTracker(mr.Addr(), "")
	if tracker == nil {
		t.Fatal("NewTracker returned nil for valid addr")
	}
	t.Cleanup(func() { _ = tracker.Close() })
	return tracker, mr
}

func TestNewTrackerDisabled(t *testing.T) {
	if tracker := NewTracker("", ""); tracker != nil {
		t.Error("empty addr must disable the tracker")
	}
}

func TestGetUnknownSender(t *testing.T) {
	tracker, _ := newTestTracker(t)

	history, err := tracker.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if history.MessageCount != 0 {
		t.Errorf("MessageCount = %d, want 0", history.MessageCount)
	}
	if history.SecondsSinceLast != 0 {
		t.Errorf("SecondsSinceLast = %d, want 0", history.SecondsSinceLast)
	}
}

func TestTouchIncrementsCount(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := tracker.Touch(ctx, "alice"); err != nil {
			t.Fatalf("Touch() error = %v", err)
		}
	}

	history, err := tracker.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if history.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", history.MessageCount)
	}
	if history.SecondsSinceLast < 0 || history.SecondsSinceLast > 5 {
		t.Errorf("SecondsSinceLast = %d, want near zero", history.SecondsSinceLast)
	}
}

func TestGetLongAbsence(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	twoDaysAgo := time.Now().Add(-48 * time.Hour).Unix()
	mr.HSet("sender:bob", "count", "12")
	mr.HSet("sender:bob", "last_seen", fmt.Sprintf("%d", twoDaysAgo))

	history, err := tracker.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if history.MessageCount != 12 {
		t.Errorf("MessageCount = %d, want 12", history.MessageCount)
	}
	if history.SecondsSinceLast < 86400 {
		t.Errorf("SecondsSinceLast = %d, want > one day", history.SecondsSinceLast)
	}
}

func TestHealthy(t *testing.T) {
	tracker, mr := newTestTracker(t)

	if !tracker.Healthy(context.Background()) {
		t.Error("Healthy() = false for running server")
	}

	mr.Close()
	if tracker.Healthy(context.Background()) {
		t.Error("Healthy() = true after server shutdown")
	}
}
