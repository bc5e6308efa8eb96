package utils

import (
	"testing"
	"time"
)

func TestClamp(t *testing.T) {
	if got := ClampInt(115, 0, 100); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := ClampInt(-5, 0, 100); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := ClampFloat(1.3, 0, 1); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}

func TestRoundTo(t *testing.T) {
	if got := RoundTo(0.5+0.1+0.1+0.2, 2); got != 0.9 {
		t.Fatalf("expected 0.9, got %v", got)
	}
}

func TestHoursBetween(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if got := HoursBetween(start, start.Add(26*time.Hour+29*time.Minute)); got != 26 {
		t.Fatalf("expected 26, got %d", got)
	}
	if got := HoursBetween(start, start.Add(26*time.Hour+30*time.Minute)); got != 27 {
		t.Fatalf("expected 27, got %d", got)
	}
}
