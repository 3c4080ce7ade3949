package realtime

import (
	"fmt"
	"time"
)

// Step runs one tick at time now:
//  1. apply queued commands in order
//  2. tick every participant in registration order
//  3. run the scheduler once
//
// A panic in any command, participant or scheduler cycle is logged and the
// tick carries on with the next item.
func (l *Loop) Step(now time.Duration) {
	cmds := l.collectCommands()
	sortCommands(cmds)
	for _, c := range cmds {
		l.guard("command", func() { c.Command() })
	}

	l.mu.Lock()
	parts := make([]Participant, len(l.participants))
	copy(parts, l.participants)
	l.now = now
	l.mu.Unlock()

	for _, p := range parts {
		l.guard("participant", func() { p.Tick(now) })
	}
	l.guard("scheduler", l.sched.Run)

	l.mu.Lock()
	l.tickNum++
	l.mu.Unlock()
}

// collectCommands atomically retrieves and clears the command batch.
func (l *Loop) collectCommands() []commandWithMeta {
	l.mu.Lock()
	defer l.mu.Unlock()

	cmds := l.batch
	l.batch = make([]commandWithMeta, 0, l.maxCommands)
	return cmds
}

func (l *Loop) guard(phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("tick panicked", "phase", phase, "tick", l.TickNumber(), "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
