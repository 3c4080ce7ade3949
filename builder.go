package cyclefsm

import (
	"github.com/cockroachdb/errors"
)

// Route is one (from, trigger, to) tuple of a data-driven table.
type Route struct {
	From    string
	Trigger string
	To      string
}

// TableBuilder builds a Table from state and trigger names instead of
// hand-numbered StateIDs. The first error is kept and returned by Build;
// later calls after an error are no-ops.
type TableBuilder struct {
	nextID   StateID
	nameToID map[string]StateID
	table    *Table
	err      error
}

// NewTableBuilder creates an empty builder. The first state gets ID 1.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{
		nextID:   1,
		nameToID: make(map[string]StateID),
		table:    NewTable(),
	}
}

// State registers a named state.
func (b *TableBuilder) State(name string, behavior Behavior) *TableBuilder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = configErrorf("empty state name")
		return b
	}
	if _, exists := b.nameToID[name]; exists {
		b.err = configErrorf("duplicate state %q", name)
		return b
	}
	id := b.assignID(name)
	if err := b.table.AddState(id, behavior); err != nil {
		b.err = err
		return b
	}
	b.table.SetName(id, name)
	return b
}

// Trigger registers a named trigger.
func (b *TableBuilder) Trigger(name string, cond Condition) *TableBuilder {
	if b.err != nil {
		return b
	}
	b.err = b.table.AddTrigger(TriggerID(name), cond)
	return b
}

// Route registers a transition using the states' default behaviors.
func (b *TableBuilder) Route(from, trigger, to string) *TableBuilder {
	return b.Transition(from, trigger, to, Behavior{})
}

// Routes registers every route in order.
func (b *TableBuilder) Routes(routes ...Route) *TableBuilder {
	for _, r := range routes {
		b.Route(r.From, r.Trigger, r.To)
	}
	return b
}

// Transition registers a transition whose non-nil actions override the
// states' defaults.
func (b *TableBuilder) Transition(from, trigger, to string, override Behavior) *TableBuilder {
	if b.err != nil {
		return b
	}
	fromID, ok := b.nameToID[from]
	if !ok {
		b.err = configErrorf("route %s -> %s on %q: unknown state %q", from, to, trigger, from)
		return b
	}
	toID, ok := b.nameToID[to]
	if !ok {
		b.err = configErrorf("route %s -> %s on %q: unknown state %q", from, to, trigger, to)
		return b
	}
	b.err = b.table.Register(Descriptor{
		From:    fromID,
		Trigger: TriggerID(trigger),
		To:      toID,
		Exit:    override.Exit,
		Entry:   override.Entry,
		Steady:  override.Steady,
	})
	return b
}

// ID returns the StateID assigned to name.
func (b *TableBuilder) ID(name string) (StateID, bool) {
	id, ok := b.nameToID[name]
	return id, ok
}

// Build returns the table, or the first error recorded while building.
func (b *TableBuilder) Build() (*Table, error) {
	if b.err != nil {
		return nil, errors.Wrap(b.err, "build table")
	}
	if len(b.table.stateOrder) == 0 {
		return nil, configErrorf("table has no states")
	}
	return b.table, nil
}

// assignID returns the existing ID for a name, or creates a new sequential
// one, so IDs are deterministic for a given registration order.
func (b *TableBuilder) assignID(name string) StateID {
	if id, exists := b.nameToID[name]; exists {
		return id
	}
	id := b.nextID
	b.nextID++
	b.nameToID[name] = id
	return id
}
