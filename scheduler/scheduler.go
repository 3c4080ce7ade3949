package scheduler

import (
	"fmt"
	"log/slog"
)

type taskState int

const (
	taskRunning taskState = iota
	taskFinished
	taskCancelled
)

type task struct {
	s      *Scheduler
	id     uint64
	name   string
	action Action
	state  taskState
}

func (t *task) Cancel() { t.s.cancel(t) }

func (t *task) Done() bool { return t.state != taskRunning }

func (t *task) ID() uint64 { return t.id }

// Scheduler runs actions cooperatively. It is not safe for concurrent use;
// all calls must come from the control loop goroutine.
type Scheduler struct {
	logger  *slog.Logger
	seq     uint64
	cycle   uint64
	running []*task
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for submit/cancel/finish diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit schedules an action and calls its OnStart immediately. The first
// OnExecute happens on the next Run.
func (s *Scheduler) Submit(a Action) Handle {
	s.seq++
	t := &task{
		s:      s,
		id:     s.seq,
		name:   NameOf(a),
		action: a,
	}
	s.running = append(s.running, t)
	s.logger.Debug("action submitted", "id", t.id, "action", t.name, "cycle", s.cycle)

	if !s.guard(t, "start", a.OnStart) {
		s.remove(t)
	}
	return t
}

// Run executes one cycle: every running action gets one OnExecute call, in
// submission order. Actions submitted during the cycle wait for the next one.
func (s *Scheduler) Run() {
	s.cycle++

	batch := make([]*task, len(s.running))
	copy(batch, s.running)

	for _, t := range batch {
		if t.state != taskRunning {
			continue
		}
		var status Status
		ok := s.guard(t, "execute", func() { status = t.action.OnExecute() })
		if !ok {
			s.remove(t)
			continue
		}
		if status == Done && t.state == taskRunning {
			t.state = taskFinished
			s.remove(t)
			s.logger.Debug("action finished", "id", t.id, "action", t.name, "cycle", s.cycle)
		}
	}
}

// Cycle returns the number of completed Run calls.
func (s *Scheduler) Cycle() uint64 {
	return s.cycle
}

// Len returns the number of running actions.
func (s *Scheduler) Len() int {
	return len(s.running)
}

func (s *Scheduler) cancel(t *task) {
	if t.state != taskRunning {
		return
	}
	t.state = taskCancelled
	s.remove(t)
	s.logger.Debug("action cancelled", "id", t.id, "action", t.name, "cycle", s.cycle)
	s.guard(t, "cancel", t.action.OnCancel)
}

// guard runs fn and recovers a panic, marking the task cancelled. A failing
// action must never take the control loop down with it.
func (s *Scheduler) guard(t *task, phase string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t.state = taskCancelled
			s.logger.Error("action panicked",
				"id", t.id,
				"action", t.name,
				"phase", phase,
				"panic", fmt.Sprint(r),
			)
			ok = false
		}
	}()
	fn()
	return true
}

func (s *Scheduler) remove(t *task) {
	for i, r := range s.running {
		if r == t {
			s.running = append(s.running[:i], s.running[i+1:]...)
			return
		}
	}
}
