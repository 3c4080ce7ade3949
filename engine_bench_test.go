package cyclefsm_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/comalice/cyclefsm"
	"github.com/comalice/cyclefsm/scheduler"
)

func benchEngine(b *testing.B, triggers int) (*cyclefsm.Engine, *scheduler.Scheduler) {
	b.Helper()
	tb := cyclefsm.NewTableBuilder().
		State("idle", cyclefsm.Behavior{Steady: cyclefsm.Repeat(nil)}).
		State("busy", cyclefsm.Behavior{Steady: cyclefsm.Repeat(nil)})
	for i := 0; i < triggers; i++ {
		name := fmt.Sprintf("t%d", i)
		tb.Trigger(name, cyclefsm.PhaseIs(100, uint32(triggers), uint32(i)))
		if i%2 == 0 {
			tb.Route("idle", name, "busy")
		} else {
			tb.Route("busy", name, "idle")
		}
	}
	table, err := tb.Build()
	if err != nil {
		b.Fatalf("build table: %v", err)
	}
	idle, _ := tb.ID("idle")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := scheduler.New(scheduler.WithLogger(logger))
	e := cyclefsm.MustNewEngine(idle, table, sched, cyclefsm.WithLogger(logger))
	e.Start()
	return e, sched
}

func BenchmarkEngineTick(b *testing.B) {
	for _, n := range []int{2, 14, 64} {
		b.Run(fmt.Sprintf("triggers=%d", n), func(b *testing.B) {
			e, sched := benchEngine(b, n)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.Tick(time.Duration(i) * 10 * time.Millisecond)
				sched.Run()
			}
		})
	}
}
