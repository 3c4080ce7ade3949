package scheduler

import "time"

type funcAction struct {
	start   func()
	execute func() Status
	cancel  func()
}

func (a *funcAction) OnStart() {
	if a.start != nil {
		a.start()
	}
}

func (a *funcAction) OnExecute() Status {
	if a.execute == nil {
		return Done
	}
	return a.execute()
}

func (a *funcAction) OnCancel() {
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce returns an action that calls fn on its first cycle and completes.
func RunOnce(fn func()) Action {
	return &funcAction{
		execute: func() Status {
			if fn != nil {
				fn()
			}
			return Done
		},
	}
}

// Repeat returns an action that calls fn every cycle and never completes on
// its own.
func Repeat(fn func()) Action {
	return &funcAction{
		execute: func() Status {
			if fn != nil {
				fn()
			}
			return Continue
		},
	}
}

// Functional builds an action from callbacks. end receives true when the
// action was interrupted. A nil finished never completes.
func Functional(init func(), exec func(), end func(interrupted bool), finished func() bool) Action {
	return &funcAction{
		start: init,
		execute: func() Status {
			if exec != nil {
				exec()
			}
			if finished != nil && finished() {
				if end != nil {
					end(false)
				}
				return Done
			}
			return Continue
		},
		cancel: func() {
			if end != nil {
				end(true)
			}
		},
	}
}

// Wait completes once d has elapsed on the now source, measured from OnStart.
func Wait(d time.Duration, now func() time.Duration) Action {
	var deadline time.Duration
	return &funcAction{
		start: func() { deadline = now() + d },
		execute: func() Status {
			if now() >= deadline {
				return Done
			}
			return Continue
		},
	}
}

type sequence struct {
	steps []Action
	idx   int
}

// Sequence runs steps one after another as a single action. Steps that
// complete immediately are chained within the same cycle, so a run of
// instant steps followed by a long-running one all start in one Run.
// Cancelling the sequence cancels only the step in progress; later steps
// never start.
func Sequence(steps ...Action) Action {
	return &sequence{steps: steps}
}

func (s *sequence) OnStart() {
	s.idx = 0
	if len(s.steps) > 0 {
		s.steps[0].OnStart()
	}
}

func (s *sequence) OnExecute() Status {
	for s.idx < len(s.steps) {
		if s.steps[s.idx].OnExecute() == Continue {
			return Continue
		}
		s.idx++
		if s.idx < len(s.steps) {
			s.steps[s.idx].OnStart()
		}
	}
	return Done
}

func (s *sequence) OnCancel() {
	if s.idx < len(s.steps) {
		s.steps[s.idx].OnCancel()
	}
}

type named struct {
	Action
	name string
}

func (n *named) Name() string { return n.name }

// Named attaches a display name to an action.
func Named(name string, a Action) Action {
	return &named{Action: a, name: name}
}
