package cyclefsm

// Predicate is a boolean condition evaluated once per cycle.
type Predicate func() bool

// Condition builds a trigger predicate against an engine's clock. Tables
// declare conditions; each engine binds them to its own clock, so several
// engines can share one table without sharing time.
type Condition func(clock Clock) Predicate

// When wraps a predicate that does not depend on time.
func When(p Predicate) Condition {
	return func(Clock) Predicate { return p }
}

// PhaseIs is true while the engine clock sits in bin of a divider with the
// given scale and bin count.
func PhaseIs(scale float64, bins uint32, bin uint32) Condition {
	return func(clock Clock) Predicate {
		return NewClockDivider(clock, scale, bins).At(bin)
	}
}

// EdgeTrigger exposes only the rising edges of a predicate.
type EdgeTrigger struct {
	predicate Predicate
	last      bool
}

// NewEdgeTrigger seeds the previous value with p() so a predicate that
// starts out true does not fire on the first poll.
func NewEdgeTrigger(p Predicate) *EdgeTrigger {
	return &EdgeTrigger{predicate: p, last: p()}
}

// Poll evaluates the predicate and reports a false to true transition.
// It must be called exactly once per cycle.
func (t *EdgeTrigger) Poll() bool {
	v := t.predicate()
	fired := v && !t.last
	t.last = v
	return fired
}

// Last returns the value seen by the previous poll.
func (t *EdgeTrigger) Last() bool {
	return t.last
}
