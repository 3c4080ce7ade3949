// Package cyclefsm is a cyclically evaluated, Moore-like finite state machine
// for fixed-rate control loops.
//
// Every state carries an entry action, a steady-state action and an exit
// action. Transitions are driven by edge-triggered conditions that the
// engine polls once per cycle; a trigger firing while the engine sits in the
// state it was registered for runs exit, records the new state, runs entry
// and starts the new steady action. Actions are not executed by the engine
// itself but submitted to a cooperative scheduler.
//
//	b := cyclefsm.NewTableBuilder().
//		State("off", cyclefsm.Behavior{}).
//		State("on", cyclefsm.Behavior{Steady: cyclefsm.Repeat(blink)}).
//		Trigger("button", cyclefsm.When(pressed)).
//		Route("off", "button", "on").
//		Route("on", "button", "off")
//	table, _ := b.Build()
//	off, _ := b.ID("off")
//	sched := scheduler.New()
//	e, _ := cyclefsm.NewEngine(off, table, sched)
//	e.Start()
//	for _, now := range cycles {
//		e.Tick(now)
//		sched.Run()
//	}
package cyclefsm

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/cyclefsm/scheduler"
)

// ActionScheduler is the collaborator that executes actions.
type ActionScheduler interface {
	Submit(a scheduler.Action) scheduler.Handle
}

// Transition describes a recorded state change, delivered to observers.
type Transition struct {
	EngineID uuid.UUID
	Engine   string
	From     StateID
	To       StateID
	Trigger  TriggerID
	Initial  bool
	At       time.Duration
}

// Observer receives every recorded state change. Observers run on the
// control loop goroutine and must not block.
type Observer func(Transition)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithName sets the display name used in logs and action names.
func WithName(name string) Option {
	return func(e *Engine) {
		e.name = name
	}
}

// WithObserver adds an observer of recorded transitions.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithStoppedAction sets an action submitted each time the engine goes from
// active to stopped, e.g. to blank an output. Start cancels it.
func WithStoppedAction(f ActionFactory) Option {
	return func(e *Engine) {
		e.stoppedAction = f
	}
}

// WithClock makes the engine drive an existing clock instead of its own.
func WithClock(c *CycleClock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

type boundTrigger struct {
	id   TriggerID
	edge *EdgeTrigger
}

// Engine owns the identity of the current state and the active flag and
// evaluates the table's triggers once per Tick.
//
// Start, Stop and Tick must be called from a single goroutine (the control
// loop). CurrentState and IsActive are pure reads, safe from any goroutine.
type Engine struct {
	id      uuid.UUID
	name    string
	table   *Table
	sched   ActionScheduler
	clock   *CycleClock
	logger  *slog.Logger
	initial Descriptor

	triggers      []boundTrigger
	observers     []Observer
	stoppedAction ActionFactory
	stoppedEdge   *EdgeTrigger

	mu         sync.RWMutex
	current    StateID
	hasCurrent bool
	active     bool

	inflight scheduler.Handle
	stopped  scheduler.Handle
}

// NewEngine wires an engine over table starting at initial. All
// configuration errors surface here, before Start is reachable.
func NewEngine(initial StateID, table *Table, sched ActionScheduler, opts ...Option) (*Engine, error) {
	if table == nil {
		return nil, configErrorf("nil transition table")
	}
	if sched == nil {
		return nil, configErrorf("nil action scheduler")
	}
	if len(table.stateOrder) == 0 {
		return nil, configErrorf("transition table has no states")
	}
	init, err := table.InitialTransition(initial)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		id:      uuid.New(),
		table:   table,
		sched:   sched,
		logger:  slog.Default(),
		initial: init,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = NewCycleClock(0)
	}
	if e.name == "" {
		e.name = "fsm-" + e.id.String()[:8]
	}
	e.logger = e.logger.With("fsm", e.name)

	for _, tr := range table.triggers {
		pred := tr.cond(e.clock)
		if pred == nil {
			return nil, configErrorf("trigger %q built a nil predicate", tr.id)
		}
		e.triggers = append(e.triggers, boundTrigger{id: tr.id, edge: NewEdgeTrigger(pred)})
	}
	if e.stoppedAction != nil {
		e.stoppedEdge = NewEdgeTrigger(func() bool { return !e.IsActive() })
	}
	return e, nil
}

// MustNewEngine is NewEngine that panics on a configuration error.
func MustNewEngine(initial StateID, table *Table, sched ActionScheduler, opts ...Option) *Engine {
	e, err := NewEngine(initial, table, sched, opts...)
	if err != nil {
		panic(fmt.Sprintf("cyclefsm: %v", err))
	}
	return e
}

// Start enters the initial state if the engine is stopped. The initial
// state is recorded immediately; its entry and steady actions are
// submitted to the scheduler. Calling Start while running does nothing.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return
	}
	e.active = true
	from, hadCurrent := e.current, e.hasCurrent
	e.current = e.initial.To
	e.hasCurrent = true
	e.mu.Unlock()

	if e.stopped != nil {
		e.stopped.Cancel()
		e.stopped = nil
	}
	e.logger.Info("fsm started", "state", e.table.Name(e.initial.To))
	if !hadCurrent {
		from = e.initial.To
	}
	e.notify(Transition{From: from, To: e.initial.To, Initial: true})
	e.runTransition(e.initial)
}

// Stop clears the active flag. No exit action runs and nothing is
// cancelled: the running steady action sees the flag on its next cycle and
// completes. The current state is kept. Calling Stop while stopped does
// nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	e.active = false
	state := e.current
	e.mu.Unlock()

	e.logger.Info("fsm stopped", "state", e.table.Name(state))
}

// IsActive reports whether the engine is running.
func (e *Engine) IsActive() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// CurrentState returns the last recorded state. ok is false before the
// first Start.
func (e *Engine) CurrentState() (state StateID, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current, e.hasCurrent
}

// Tick runs one cycle at time now: every trigger is polled exactly once in
// registration order, and each firing that matches the current state starts
// its transition before the next trigger is polled. When several
// transitions match in one cycle the last one wins; it cancels the ones
// submitted before it. Tick never panics.
func (e *Engine) Tick(now time.Duration) {
	e.clock.Set(now)

	for _, tr := range e.triggers {
		e.guard(tr.id, func() {
			if tr.edge.Poll() {
				e.fire(tr.id)
			}
		})
	}

	if e.stoppedEdge != nil {
		e.guard("stopped", func() {
			if e.stoppedEdge.Poll() {
				e.stopped = e.sched.Submit(scheduler.Named(e.name+" stopped", e.stoppedAction()))
			}
		})
	}
}

// guard recovers a panic raised by a predicate or an action factory; the
// host control loop must keep running.
func (e *Engine) guard(id TriggerID, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("trigger evaluation panicked", "trigger", id, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

func (e *Engine) fire(id TriggerID) {
	e.mu.RLock()
	active, current := e.active, e.current
	e.mu.RUnlock()

	if !active {
		e.logger.Debug("trigger ignored while stopped", "trigger", id)
		return
	}
	d, ok := e.table.Lookup(current, id)
	if !ok {
		return
	}
	e.logger.Debug("transition fired",
		"trigger", id,
		"from", e.table.Name(d.From),
		"to", e.table.Name(d.To),
	)
	e.runTransition(d)
}

// ID returns the instance identifier.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Name returns the display name.
func (e *Engine) Name() string {
	return e.name
}

// Table returns the transition table.
func (e *Engine) Table() *Table {
	return e.table
}

// Clock returns the clock set by Tick.
func (e *Engine) Clock() *CycleClock {
	return e.clock
}

// StateName returns the display name of id.
func (e *Engine) StateName(id StateID) string {
	return e.table.Name(id)
}

func (e *Engine) notify(t Transition) {
	t.EngineID = e.id
	t.Engine = e.name
	t.At = e.clock.Now()
	for _, o := range e.observers {
		e.observe(o, t)
	}
}

// observe delivers t to o. A panicking observer is logged and skipped so the
// transition it was notified about still runs to completion.
func (e *Engine) observe(o Observer, t Transition) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("observer panicked",
				"to", e.table.Name(t.To),
				"initial", t.Initial,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	o(t)
}
