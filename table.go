package cyclefsm

import (
	"fmt"

	"github.com/comalice/cyclefsm/scheduler"
)

// StateID identifies a state. States are never identified by their actions:
// action factories return a new instance on every call.
type StateID int

// TriggerID identifies a trigger in a table.
type TriggerID string

// ActionFactory produces a fresh action for each transition.
type ActionFactory func() scheduler.Action

// Do returns a factory for a one-shot action.
func Do(fn func()) ActionFactory {
	return func() scheduler.Action { return scheduler.RunOnce(fn) }
}

// Repeat returns a factory for an action running fn every cycle. Used as a
// steady action it ends when the engine stops or the state is left.
func Repeat(fn func()) ActionFactory {
	return func() scheduler.Action { return scheduler.Repeat(fn) }
}

// Behavior is the default action set of a state. Entry and exit actions
// should be short-running; Steady runs until the next transition.
type Behavior struct {
	Entry  ActionFactory
	Steady ActionFactory
	Exit   ActionFactory
}

// Descriptor is a transition: when Trigger fires while in From, run Exit,
// record To, run Entry, then start Steady.
type Descriptor struct {
	From    StateID
	Trigger TriggerID
	To      StateID

	Exit   ActionFactory
	Entry  ActionFactory
	Steady ActionFactory

	initial bool
}

// Initial reports whether d enters the initial state on Start.
func (d Descriptor) Initial() bool {
	return d.initial
}

type transitionKey struct {
	from    StateID
	trigger TriggerID
}

type triggerEntry struct {
	id   TriggerID
	cond Condition
}

// Table maps (state, trigger) pairs to transitions. It is built once,
// before any engine uses it, and is read-only afterwards.
type Table struct {
	states      map[StateID]Behavior
	stateOrder  []StateID
	names       map[StateID]string
	triggers    []triggerEntry
	triggerIdx  map[TriggerID]int
	transitions map[transitionKey]Descriptor
	order       []transitionKey
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		states:      make(map[StateID]Behavior),
		names:       make(map[StateID]string),
		triggerIdx:  make(map[TriggerID]int),
		transitions: make(map[transitionKey]Descriptor),
	}
}

// AddState registers a state with its default behavior.
func (t *Table) AddState(id StateID, b Behavior) error {
	if _, exists := t.states[id]; exists {
		return configErrorf("duplicate state %d", id)
	}
	t.states[id] = b
	t.stateOrder = append(t.stateOrder, id)
	return nil
}

// SetName attaches a display name to a registered state.
func (t *Table) SetName(id StateID, name string) {
	t.names[id] = name
}

// Name returns the display name of a state, or its number.
func (t *Table) Name(id StateID) string {
	if n, ok := t.names[id]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(id))
}

// AddTrigger registers a trigger. Triggers are polled in registration order.
func (t *Table) AddTrigger(id TriggerID, cond Condition) error {
	if id == "" {
		return configErrorf("empty trigger ID")
	}
	if cond == nil {
		return configErrorf("trigger %q has no condition", id)
	}
	if _, exists := t.triggerIdx[id]; exists {
		return configErrorf("duplicate trigger %q", id)
	}
	t.triggerIdx[id] = len(t.triggers)
	t.triggers = append(t.triggers, triggerEntry{id: id, cond: cond})
	return nil
}

// Register adds a transition. Nil actions default to the from-state's Exit
// and the to-state's Entry and Steady.
func (t *Table) Register(d Descriptor) error {
	from, ok := t.states[d.From]
	if !ok {
		return configErrorf("transition on trigger %q leaves unregistered state %d", d.Trigger, d.From)
	}
	to, ok := t.states[d.To]
	if !ok {
		return configErrorf("transition %s on trigger %q targets unregistered state %d", t.Name(d.From), d.Trigger, d.To)
	}
	if _, ok := t.triggerIdx[d.Trigger]; !ok {
		return configErrorf("transition %s -> %s uses unregistered trigger %q", t.Name(d.From), t.Name(d.To), d.Trigger)
	}
	key := transitionKey{from: d.From, trigger: d.Trigger}
	if _, exists := t.transitions[key]; exists {
		return configErrorf("duplicate transition from %s on trigger %q", t.Name(d.From), d.Trigger)
	}

	if d.Exit == nil {
		d.Exit = from.Exit
	}
	if d.Entry == nil {
		d.Entry = to.Entry
	}
	if d.Steady == nil {
		d.Steady = to.Steady
	}
	d.initial = false

	t.transitions[key] = d
	t.order = append(t.order, key)
	return nil
}

// Lookup returns the transition for trigger fired while in from. A miss is
// the normal outcome for triggers irrelevant to the current state.
func (t *Table) Lookup(from StateID, trigger TriggerID) (Descriptor, bool) {
	d, ok := t.transitions[transitionKey{from: from, trigger: trigger}]
	return d, ok
}

// InitialTransition returns the transition entering state on Start. It has
// no exit action since there is no prior state.
func (t *Table) InitialTransition(state StateID) (Descriptor, error) {
	b, ok := t.states[state]
	if !ok {
		return Descriptor{}, configErrorf("initial state %d is not registered", state)
	}
	return Descriptor{
		From:    state,
		To:      state,
		Entry:   b.Entry,
		Steady:  b.Steady,
		initial: true,
	}, nil
}

// HasState reports whether id is registered.
func (t *Table) HasState(id StateID) bool {
	_, ok := t.states[id]
	return ok
}

// States returns the registered states in registration order.
func (t *Table) States() []StateID {
	return append([]StateID(nil), t.stateOrder...)
}

// Triggers returns the trigger IDs in polling order.
func (t *Table) Triggers() []TriggerID {
	ids := make([]TriggerID, len(t.triggers))
	for i, tr := range t.triggers {
		ids[i] = tr.id
	}
	return ids
}

// Descriptors returns all transitions in registration order.
func (t *Table) Descriptors() []Descriptor {
	out := make([]Descriptor, len(t.order))
	for i, key := range t.order {
		out[i] = t.transitions[key]
	}
	return out
}
