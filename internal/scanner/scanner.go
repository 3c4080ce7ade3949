// Package scanner is the eight-light "Knight Rider" scanner: a lit light
// sweeps first to last and back again, one light per phase of a clock
// divider, and all lights go dark while the machine is stopped.
package scanner

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/comalice/cyclefsm"
	"github.com/comalice/cyclefsm/internal/config"
	"github.com/comalice/cyclefsm/scheduler"
)

// TableConfig generates the sweep table for lights lights named L1..Ln.
// The period has 2n-2 bins: bins 0..n-2 move forward, bin n-1 turns
// around at the last light and the remaining bins move back to L1.
func TableConfig(id string, lights int, scale float64) config.TableConfig {
	c := config.TableConfig{
		ID:      id,
		Initial: lightName(0),
		Clock:   config.ClockConfig{Scale: scale},
	}
	if lights < 2 {
		return c
	}
	bins := 2*lights - 2
	c.Clock.Bins = uint32(bins)
	for i := 0; i < lights; i++ {
		c.States = append(c.States, lightName(i))
	}
	for p := 0; p < lights-1; p++ {
		c.Transitions = append(c.Transitions, config.TransitionConfig{
			From: lightName(p), Phase: uint32(p), To: lightName(p + 1),
		})
	}
	for p := lights - 1; p < bins; p++ {
		from := bins - p + 1
		c.Transitions = append(c.Transitions, config.TransitionConfig{
			From: lightName(from - 1), Phase: uint32(p), To: lightName(from - 2),
		})
	}
	return c
}

func lightName(i int) string {
	return fmt.Sprintf("L%d", i+1)
}

// Options configures a Scanner.
type Options struct {
	Name      string
	Table     *config.TableConfig
	Display   Display
	Scheduler cyclefsm.ActionScheduler
	Logger    *slog.Logger
	Observers []cyclefsm.Observer
}

// Scanner drives a display from a transition table: the light lit in each
// state is the state's position in the table document.
type Scanner struct {
	Engine *cyclefsm.Engine
	Lights int

	display Display
	logger  *slog.Logger
}

// New builds the scanner engine. It is not started.
func New(opts Options) (*Scanner, error) {
	if opts.Table == nil {
		return nil, errors.Mark(errors.New("scanner table is required"), cyclefsm.ErrConfiguration)
	}
	if opts.Display == nil {
		return nil, errors.Mark(errors.New("scanner display is required"), cyclefsm.ErrConfiguration)
	}
	if err := opts.Table.Validate(); err != nil {
		return nil, errors.Wrap(err, "scanner table")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Scanner{
		Lights:  len(opts.Table.States),
		display: opts.Display,
		logger:  opts.Logger.With("scanner", opts.Name),
	}

	index := make(map[string]int, s.Lights)
	for i, name := range opts.Table.States {
		index[name] = i
	}
	b := opts.Table.Builder(func(state string) cyclefsm.Behavior {
		return s.behavior(state, index[state])
	})
	table, err := b.Build()
	if err != nil {
		return nil, err
	}
	initial, _ := b.ID(opts.Table.Initial)

	engineOpts := []cyclefsm.Option{
		cyclefsm.WithName(opts.Name),
		cyclefsm.WithLogger(opts.Logger),
		cyclefsm.WithStoppedAction(s.off),
	}
	for _, o := range opts.Observers {
		engineOpts = append(engineOpts, cyclefsm.WithObserver(o))
	}
	s.Engine, err = cyclefsm.NewEngine(initial, table, opts.Scheduler, engineOpts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) behavior(state string, light int) cyclefsm.Behavior {
	return cyclefsm.Behavior{
		Entry: cyclefsm.Do(func() { s.logger.Debug("entry action", "state", state) }),
		Steady: func() scheduler.Action {
			frame := Smear(light, s.Lights)
			return scheduler.Named("steady "+state, scheduler.Repeat(func() { s.display.Show(frame) }))
		},
		Exit: cyclefsm.Do(func() { s.logger.Debug("exit action", "state", state) }),
	}
}

func (s *Scanner) off() scheduler.Action {
	return scheduler.RunOnce(func() { s.display.Show(Blank(s.Lights)) })
}

// StopRestart returns an action that stops e after stopAfter and starts it
// again restartAfter later, both measured on now. It must run on the
// scheduler that drives e.
func StopRestart(e *cyclefsm.Engine, stopAfter, restartAfter time.Duration, now func() time.Duration) scheduler.Action {
	return scheduler.Named(e.Name()+" stop/restart", scheduler.Sequence(
		scheduler.Wait(stopAfter, now),
		scheduler.RunOnce(e.Stop),
		scheduler.Wait(restartAfter, now),
		scheduler.RunOnce(e.Start),
	))
}
