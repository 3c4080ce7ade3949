package cyclefsm

import (
	"math"
	"sync/atomic"
	"time"
)

// Clock is a monotonic time source.
type Clock interface {
	Now() time.Duration
}

// CycleClock holds the timestamp of the current control cycle. The engine
// sets it at the top of every Tick; predicates read it.
type CycleClock struct {
	now atomic.Int64
}

// NewCycleClock returns a clock reading start.
func NewCycleClock(start time.Duration) *CycleClock {
	c := &CycleClock{}
	c.Set(start)
	return c
}

// Now returns the last timestamp set.
func (c *CycleClock) Now() time.Duration {
	return time.Duration(c.now.Load())
}

// Set moves the clock to now.
func (c *CycleClock) Set(now time.Duration) {
	c.now.Store(int64(now))
}

// Phase partitions time into bins: floor(now*scale) mod bins, with now in
// seconds. A zero scale freezes the phase at bin 0. Zero bins yields 0.
func Phase(now time.Duration, scale float64, bins uint32) uint32 {
	if bins == 0 {
		return 0
	}
	v := math.Floor(now.Seconds() * scale)
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return uint32(math.Mod(v, float64(bins)))
}

// ClockDivider derives a phase index from a clock.
type ClockDivider struct {
	Clock Clock
	Scale float64
	Bins  uint32
}

// NewClockDivider returns a divider producing bins phases per 1/scale seconds.
func NewClockDivider(clock Clock, scale float64, bins uint32) ClockDivider {
	return ClockDivider{Clock: clock, Scale: scale, Bins: bins}
}

// Phase returns the current bin.
func (d ClockDivider) Phase() uint32 {
	return Phase(d.Clock.Now(), d.Scale, d.Bins)
}

// At returns a predicate true while the divider is in bin.
func (d ClockDivider) At(bin uint32) Predicate {
	return func() bool { return d.Phase() == bin }
}
