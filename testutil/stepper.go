// Package testutil drives engines deterministically in tests.
package testutil

import (
	"sync"
	"time"

	"github.com/comalice/cyclefsm"
	"github.com/comalice/cyclefsm/scheduler"
)

// Stepper advances a set of engines by one control cycle at time now.
// Both ManualStepper and realtime.Loop implement it, so the same scenario
// can run against either.
type Stepper interface {
	Step(now time.Duration)
}

// ManualStepper ticks engines in order and then runs the scheduler once,
// the same phases a control loop performs.
type ManualStepper struct {
	Sched   *scheduler.Scheduler
	Engines []*cyclefsm.Engine
}

// NewManualStepper creates a stepper over sched.
func NewManualStepper(sched *scheduler.Scheduler, engines ...*cyclefsm.Engine) *ManualStepper {
	return &ManualStepper{Sched: sched, Engines: engines}
}

// Step runs one cycle.
func (s *ManualStepper) Step(now time.Duration) {
	for _, e := range s.Engines {
		e.Tick(now)
	}
	s.Sched.Run()
}

// PhaseTime returns a timestamp in the middle of the step-th bin counted
// from time zero, for a divider with the given scale. Steps past the bin
// count wrap around the period like real time does.
func PhaseTime(scale float64, step int) time.Duration {
	return time.Duration((float64(step) + 0.5) / scale * float64(time.Second))
}

// Recorder collects transitions delivered to an engine observer.
type Recorder struct {
	mu          sync.Mutex
	transitions []cyclefsm.Transition
}

// Observe implements cyclefsm.Observer.
func (r *Recorder) Observe(t cyclefsm.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

// Transitions returns a copy of everything observed.
func (r *Recorder) Transitions() []cyclefsm.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cyclefsm.Transition(nil), r.transitions...)
}

// Targets returns the To state of every observed transition, in order.
func (r *Recorder) Targets() []cyclefsm.StateID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]cyclefsm.StateID, len(r.transitions))
	for i, t := range r.transitions {
		out[i] = t.To
	}
	return out
}
