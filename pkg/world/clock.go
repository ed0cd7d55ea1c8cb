package world

import "time"

// Clock supplies the current world day. Memory retention is evaluated on
// world days so lifetimes track simulation time, not server uptime.
type Clock interface {
	CurrentDay() int64
}

// SimClock derives the world day from a fixed epoch and day length.
type SimClock struct {
	Epoch     time.Time
	DayLength time.Duration
	Now       func() time.Time
}

func NewSimClock(epoch time.Time, dayLength time.Duration) *SimClock {
	if dayLength <= 0 {
		dayLength = 20 * time.Minute
	}
	return &SimClock{Epoch: epoch, DayLength: dayLength, Now: time.Now}
}

func (c *SimClock) CurrentDay() int64 {
	elapsed := c.Now().Sub(c.Epoch)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / c.DayLength)
}

// FixedClock pins the world day, used in tests and offline tooling.
type FixedClock int64

func (c FixedClock) CurrentDay() int64 { return int64(c) }
