package telemetry_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/cyclefsm"
	"github.com/comalice/cyclefsm/internal/telemetry"
	"github.com/comalice/cyclefsm/scheduler"
)

func newLamp(t *testing.T, name string, c *telemetry.Collector, sw *bool) (*cyclefsm.Engine, *scheduler.Scheduler) {
	t.Helper()
	b := cyclefsm.NewTableBuilder().
		State("off", cyclefsm.Behavior{}).
		State("on", cyclefsm.Behavior{}).
		Trigger("switch", cyclefsm.When(func() bool { return *sw })).
		Route("off", "switch", "on")
	table, err := b.Build()
	require.NoError(t, err)
	off, _ := b.ID("off")
	sched := scheduler.New()
	e, err := cyclefsm.NewEngine(off, table, sched, cyclefsm.WithName(name), cyclefsm.WithObserver(c.Observe))
	require.NoError(t, err)
	c.Add(e)
	return e, sched
}

func TestCollector(t *testing.T) {
	c := telemetry.NewCollector()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	sw := false
	lamp, sched := newLamp(t, "lamp", c, &sw)

	expected := `
# HELP cyclefsm_engine_active Whether the engine is running (1) or stopped (0).
# TYPE cyclefsm_engine_active gauge
cyclefsm_engine_active{fsm="lamp"} 0
`
	require.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "cyclefsm_engine_active", "cyclefsm_engine_state"))

	lamp.Start()
	sw = true
	lamp.Tick(0)
	sched.Run()

	expected = `
# HELP cyclefsm_engine_active Whether the engine is running (1) or stopped (0).
# TYPE cyclefsm_engine_active gauge
cyclefsm_engine_active{fsm="lamp"} 1
# HELP cyclefsm_engine_state Current state of the engine; the series with value 1 names it.
# TYPE cyclefsm_engine_state gauge
cyclefsm_engine_state{fsm="lamp",state="on"} 1
# HELP cyclefsm_transitions_total A count of recorded state changes.
# TYPE cyclefsm_transitions_total counter
cyclefsm_transitions_total{from="off",fsm="lamp",initial="true",to="off"} 1
cyclefsm_transitions_total{from="off",fsm="lamp",initial="false",to="on"} 1
`
	assert.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected)))
}

func TestCollectorMultipleEngines(t *testing.T) {
	c := telemetry.NewCollector()
	sw1, sw2 := false, false
	e1, _ := newLamp(t, "one", c, &sw1)
	newLamp(t, "two", c, &sw2)
	e1.Start()

	// two active gauges, one state gauge (the stopped engine was never started)
	assert.Equal(t, 3, promtest.CollectAndCount(c, "cyclefsm_engine_active", "cyclefsm_engine_state"))
	assert.Equal(t, 1, promtest.CollectAndCount(c, "cyclefsm_transitions_total"))
}
