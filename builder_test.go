package cyclefsm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/cyclefsm"
)

func TestBuilderTrafficLight(t *testing.T) {
	b := cyclefsm.NewTableBuilder().
		State("green", cyclefsm.Behavior{}).
		State("yellow", cyclefsm.Behavior{}).
		State("red", cyclefsm.Behavior{}).
		Trigger("timer", cyclefsm.When(never)).
		Routes(
			cyclefsm.Route{From: "green", Trigger: "timer", To: "yellow"},
			cyclefsm.Route{From: "yellow", Trigger: "timer", To: "red"},
			cyclefsm.Route{From: "red", Trigger: "timer", To: "green"},
		)

	tbl, err := b.Build()
	require.NoError(t, err)

	green, ok := b.ID("green")
	require.True(t, ok)
	yellow, _ := b.ID("yellow")
	red, _ := b.ID("red")
	assert.Equal(t, cyclefsm.StateID(1), green)
	assert.Equal(t, cyclefsm.StateID(2), yellow)
	assert.Equal(t, cyclefsm.StateID(3), red)

	d, ok := tbl.Lookup(red, "timer")
	require.True(t, ok)
	assert.Equal(t, green, d.To)
	assert.Equal(t, "yellow", tbl.Name(yellow))

	_, ok = b.ID("blue")
	assert.False(t, ok)
}

func TestBuilderTransitionOverride(t *testing.T) {
	var ran bool
	b := cyclefsm.NewTableBuilder().
		State("a", cyclefsm.Behavior{}).
		State("b", cyclefsm.Behavior{}).
		Trigger("go", cyclefsm.When(never)).
		Transition("a", "go", "b", cyclefsm.Behavior{Exit: cyclefsm.Do(func() { ran = true })})

	tbl, err := b.Build()
	require.NoError(t, err)
	a, _ := b.ID("a")
	d, ok := tbl.Lookup(a, "go")
	require.True(t, ok)
	require.NotNil(t, d.Exit)
	assert.NotNil(t, d.Exit())
	assert.False(t, ran)
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *cyclefsm.TableBuilder
	}{
		{
			name:  "no states",
			build: cyclefsm.NewTableBuilder,
		},
		{
			name: "empty state name",
			build: func() *cyclefsm.TableBuilder {
				return cyclefsm.NewTableBuilder().State("", cyclefsm.Behavior{})
			},
		},
		{
			name: "duplicate state",
			build: func() *cyclefsm.TableBuilder {
				return cyclefsm.NewTableBuilder().
					State("a", cyclefsm.Behavior{}).
					State("a", cyclefsm.Behavior{})
			},
		},
		{
			name: "route to unknown state",
			build: func() *cyclefsm.TableBuilder {
				return cyclefsm.NewTableBuilder().
					State("a", cyclefsm.Behavior{}).
					Trigger("go", cyclefsm.When(never)).
					Route("a", "go", "nowhere")
			},
		},
		{
			name: "route from unknown state",
			build: func() *cyclefsm.TableBuilder {
				return cyclefsm.NewTableBuilder().
					State("a", cyclefsm.Behavior{}).
					Trigger("go", cyclefsm.When(never)).
					Route("nowhere", "go", "a")
			},
		},
		{
			name: "duplicate route",
			build: func() *cyclefsm.TableBuilder {
				return cyclefsm.NewTableBuilder().
					State("a", cyclefsm.Behavior{}).
					State("b", cyclefsm.Behavior{}).
					Trigger("go", cyclefsm.When(never)).
					Route("a", "go", "b").
					Route("a", "go", "a")
			},
		},
		{
			name: "first error sticks",
			build: func() *cyclefsm.TableBuilder {
				return cyclefsm.NewTableBuilder().
					Trigger("go", nil).
					State("a", cyclefsm.Behavior{})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := tt.build().Build()
			require.Error(t, err)
			assert.Nil(t, tbl)
			assert.True(t, cyclefsm.IsConfigurationError(err), "got %v", err)
		})
	}
}
