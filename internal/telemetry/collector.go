package telemetry

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/cyclefsm"
)

// Source is the read-only view of an engine the collector scrapes.
// *cyclefsm.Engine implements it.
type Source interface {
	Name() string
	IsActive() bool
	CurrentState() (cyclefsm.StateID, bool)
	StateName(id cyclefsm.StateID) string
}

// Collector is a prometheus.Collector reporting, per engine, whether it is
// running and which state it is in, plus a counter of recorded transitions
// fed through Observe.
type Collector struct {
	activeDesc  *prometheus.Desc
	stateDesc   *prometheus.Desc
	transitions *prometheus.CounterVec

	mu      sync.RWMutex
	sources []Source
}

// NewCollector creates a collector over sources. More can be added later.
func NewCollector(sources ...Source) *Collector {
	return &Collector{
		activeDesc: prometheus.NewDesc(
			"cyclefsm_engine_active",
			"Whether the engine is running (1) or stopped (0).",
			[]string{"fsm"}, nil,
		),
		stateDesc: prometheus.NewDesc(
			"cyclefsm_engine_state",
			"Current state of the engine; the series with value 1 names it.",
			[]string{"fsm", "state"}, nil,
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cyclefsm_transitions_total",
				Help: "A count of recorded state changes.",
			},
			[]string{"fsm", "from", "to", "initial"},
		),
		sources: sources,
	}
}

// Add registers another engine.
func (c *Collector) Add(s Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, s)
}

// Observe counts t. It has the cyclefsm.Observer signature and is meant to
// be passed to cyclefsm.WithObserver.
func (c *Collector) Observe(t cyclefsm.Transition) {
	initial := "false"
	if t.Initial {
		initial = "true"
	}
	c.transitions.WithLabelValues(t.Engine, c.stateName(t.Engine, t.From), c.stateName(t.Engine, t.To), initial).Inc()
}

func (c *Collector) stateName(engine string, id cyclefsm.StateID) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.sources {
		if s.Name() == engine {
			return s.StateName(id)
		}
	}
	return strconv.Itoa(int(id))
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeDesc
	ch <- c.stateDesc
	c.transitions.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	sources := append([]Source(nil), c.sources...)
	c.mu.RUnlock()

	for _, s := range sources {
		active := 0.0
		if s.IsActive() {
			active = 1
		}
		ch <- prometheus.MustNewConstMetric(c.activeDesc, prometheus.GaugeValue, active, s.Name())

		if state, ok := s.CurrentState(); ok {
			ch <- prometheus.MustNewConstMetric(c.stateDesc, prometheus.GaugeValue, 1, s.Name(), s.StateName(state))
		}
	}
	c.transitions.Collect(ch)
}
