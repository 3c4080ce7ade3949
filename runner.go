package cyclefsm

import (
	"github.com/comalice/cyclefsm/scheduler"
)

// runTransition submits d as one sequence: exit, record, entry, steady.
// Whatever is left of the previous transition is cancelled first, so a
// still-running steady action is interrupted before the new exit and entry
// run. A recorded state is never rolled back, even if the sequence is
// later cancelled before its entry or steady action finishes.
func (e *Engine) runTransition(d Descriptor) {
	if e.inflight != nil {
		e.inflight.Cancel()
		e.inflight = nil
	}

	steps := make([]scheduler.Action, 0, 4)
	if !d.initial {
		if d.Exit != nil {
			steps = append(steps, d.Exit())
		}
		steps = append(steps, scheduler.RunOnce(func() { e.record(d) }))
	}
	if d.Entry != nil {
		steps = append(steps, d.Entry())
	}
	if d.Steady != nil {
		steps = append(steps, &steadyAction{engine: e, inner: d.Steady()})
	}

	name := e.name + " transition to " + e.table.Name(d.To)
	e.inflight = e.sched.Submit(scheduler.Named(name, scheduler.Sequence(steps...)))
}

// record makes d.To the current state. Predicates evaluated from the next
// poll on observe the new state.
func (e *Engine) record(d Descriptor) {
	e.mu.Lock()
	e.current = d.To
	e.hasCurrent = true
	e.mu.Unlock()

	e.notify(Transition{From: d.From, To: d.To, Trigger: d.Trigger})
}

// steadyAction runs inner every cycle until the engine stops, then reports
// completion. Cancellation by a newer transition is forwarded to inner.
type steadyAction struct {
	engine *Engine
	inner  scheduler.Action
}

func (s *steadyAction) OnStart() {
	s.inner.OnStart()
}

func (s *steadyAction) OnExecute() scheduler.Status {
	if !s.engine.IsActive() {
		return scheduler.Done
	}
	return s.inner.OnExecute()
}

func (s *steadyAction) OnCancel() {
	s.inner.OnCancel()
}
