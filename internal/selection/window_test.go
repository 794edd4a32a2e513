package selection

import (
	"testing"
	"time"
)

func TestRemainingNotStarted(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	w := Remaining(nil, now, DefaultWindow)

	if w.TimeLeft != DefaultWindow {
		t.Errorf("Expected full window %v, got %v", DefaultWindow, w.TimeLeft)
	}
	if w.Expired {
		t.Error("Expected not expired before the timer starts")
	}
}

func TestRemainingJustStarted(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	w := Remaining(&start, start, DefaultWindow)

	if w.TimeLeft != DefaultWindow {
		t.Errorf("Expected %v left, got %v", DefaultWindow, w.TimeLeft)
	}
	if w.Expired {
		t.Error("Expected not expired at the start instant")
	}
}

func TestRemainingAtBoundary(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(DefaultWindow)

	w := Remaining(&start, now, DefaultWindow)

	if w.TimeLeft != 0 {
		t.Errorf("Expected 0 left at the boundary, got %v", w.TimeLeft)
	}
	if w.Expired {
		t.Error("Expected the boundary instant itself to not be expired")
	}
}

func TestRemainingExpired(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(DefaultWindow + time.Millisecond)

	w := Remaining(&start, now, DefaultWindow)

	if !w.Expired {
		t.Error("Expected expired past the boundary")
	}
	if w.TimeLeft >= 0 {
		t.Errorf("Expected negative time left, got %v", w.TimeLeft)
	}
}

func TestRemainingCustomWindow(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(30 * time.Minute)

	w := Remaining(&start, now, time.Hour)

	if w.TimeLeft != 30*time.Minute {
		t.Errorf("Expected 30m left, got %v", w.TimeLeft)
	}
	if w.Expired {
		t.Error("Expected not expired halfway through")
	}
}
