package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/comalice/cyclefsm"
)

// ClockConfig parameterizes the clock divider shared by a table's triggers.
type ClockConfig struct {
	Scale float64 `json:"scale" yaml:"scale"`
	Bins  uint32  `json:"bins" yaml:"bins"`
}

// TransitionConfig is a transition fired by the rising edge of a phase.
type TransitionConfig struct {
	From  string `json:"from" yaml:"from"`
	Phase uint32 `json:"phase" yaml:"phase"`
	To    string `json:"to" yaml:"to"`
}

// TableConfig is a serializable transition table.
type TableConfig struct {
	Version     string             `json:"version,omitempty" yaml:"version,omitempty"`
	ID          string             `json:"id" yaml:"id"`
	Initial     string             `json:"initial" yaml:"initial"`
	Clock       ClockConfig        `json:"clock" yaml:"clock"`
	States      []string           `json:"states" yaml:"states"`
	Transitions []TransitionConfig `json:"transitions" yaml:"transitions"`
}

func invalidf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), cyclefsm.ErrConfiguration)
}

// Validate checks the document:
//   - non-empty ID, Initial and States, no duplicate states
//   - Initial is a listed state
//   - positive bin count and non-negative scale
//   - transitions reference listed states and phases below the bin count
//   - at most one transition per (from, phase)
//   - every state is reachable from Initial
func (c *TableConfig) Validate() error {
	if c.ID == "" {
		return invalidf("table ID is required")
	}
	if c.Initial == "" {
		return invalidf("initial state is required")
	}
	if len(c.States) == 0 {
		return invalidf("states list is required and cannot be empty")
	}
	if c.Clock.Bins == 0 {
		return invalidf("clock bins must be positive")
	}
	if c.Clock.Scale < 0 {
		return invalidf("clock scale must not be negative, got %v", c.Clock.Scale)
	}

	known := make(map[string]bool, len(c.States))
	for _, s := range c.States {
		if s == "" {
			return invalidf("state name cannot be empty")
		}
		if known[s] {
			return invalidf("duplicate state %q", s)
		}
		known[s] = true
	}
	if !known[c.Initial] {
		return invalidf("initial state %q not found in states", c.Initial)
	}

	type key struct {
		from  string
		phase uint32
	}
	seen := make(map[key]bool, len(c.Transitions))
	for i, t := range c.Transitions {
		if !known[t.From] {
			return invalidf("transition %d: unknown source state %q", i, t.From)
		}
		if !known[t.To] {
			return invalidf("transition %d: unknown target state %q", i, t.To)
		}
		if t.Phase >= c.Clock.Bins {
			return invalidf("transition %d: phase %d out of range [0, %d)", i, t.Phase, c.Clock.Bins)
		}
		k := key{t.From, t.Phase}
		if seen[k] {
			return invalidf("transition %d: duplicate transition from %q at phase %d", i, t.From, t.Phase)
		}
		seen[k] = true
	}

	visited := c.reachable()
	for _, s := range c.States {
		if !visited[s] {
			return invalidf("orphaned state %q (not reachable from initial %q)", s, c.Initial)
		}
	}
	return nil
}

func (c *TableConfig) reachable() map[string]bool {
	edges := make(map[string][]string)
	for _, t := range c.Transitions {
		edges[t.From] = append(edges[t.From], t.To)
	}
	visited := map[string]bool{c.Initial: true}
	queue := []string{c.Initial}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, next := range edges[s] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}

// PhaseTrigger names the trigger for a phase bin.
func PhaseTrigger(phase uint32) string {
	return fmt.Sprintf("phase%d", phase)
}

// Phases returns the distinct phases used by transitions, ascending.
func (c *TableConfig) Phases() []uint32 {
	set := make(map[uint32]bool)
	var out []uint32
	for _, t := range c.Transitions {
		if !set[t.Phase] {
			set[t.Phase] = true
			out = append(out, t.Phase)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Builder returns a table builder populated from the document. behavior
// supplies the actions of each state by name and may be nil.
func (c *TableConfig) Builder(behavior func(state string) cyclefsm.Behavior) *cyclefsm.TableBuilder {
	b := cyclefsm.NewTableBuilder()
	for _, s := range c.States {
		var bh cyclefsm.Behavior
		if behavior != nil {
			bh = behavior(s)
		}
		b.State(s, bh)
	}
	for _, p := range c.Phases() {
		b.Trigger(PhaseTrigger(p), cyclefsm.PhaseIs(c.Clock.Scale, c.Clock.Bins, p))
	}
	for _, t := range c.Transitions {
		b.Route(t.From, PhaseTrigger(t.Phase), t.To)
	}
	return b
}

// Parse decodes and validates a YAML table document.
func Parse(data []byte) (*TableConfig, error) {
	var c TableConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "yaml unmarshal"), cyclefsm.ErrConfiguration)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "table %q", c.ID)
	}
	return &c, nil
}

// LoadTable reads and validates the YAML table document at path.
func LoadTable(path string) (*TableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return c, nil
}

// SaveTable writes c as YAML to path, creating parent directories.
func SaveTable(path string, c *TableConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "yaml marshal")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
