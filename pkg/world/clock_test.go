package world

import (
	"testing"
	"time"
)

func TestSimClockDayMath(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSimClock(epoch, 20*time.Minute)

	tests := []struct {
		elapsed time.Duration
		want    int64
	}{
		{0, 0},
		{19 * time.Minute, 0},
		{20 * time.Minute, 1},
		{45 * time.Minute, 2},
		{24 * time.Hour, 72},
	}
	for _, tt := range tests {
		c.Now = func() time.Time { return epoch.Add(tt.elapsed) }
		if got := c.CurrentDay(); got != tt.want {
			t.Errorf("elapsed %v: day %d, want %d", tt.elapsed, got, tt.want)
		}
	}

	// Before the epoch the world is still on day zero.
	c.Now = func() time.Time { return epoch.Add(-time.Hour) }
	if got := c.CurrentDay(); got != 0 {
		t.Errorf("pre-epoch day should be 0, got %d", got)
	}
}

func TestFixedClock(t *testing.T) {
	if FixedClock(42).CurrentDay() != 42 {
		t.Fatal("fixed clock should return its value")
	}
}
