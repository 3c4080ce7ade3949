package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrQueueFull is returned by Send when the next tick's command batch is
// already at capacity.
var ErrQueueFull = errors.New("command queue full")

// ErrRunning is returned by Start and Run when the loop is already running.
var ErrRunning = errors.New("loop already running")

// Participant is evaluated once per tick. *cyclefsm.Engine implements it.
type Participant interface {
	Tick(now time.Duration)
}

// Runner executes one scheduler cycle. *scheduler.Scheduler implements it.
type Runner interface {
	Run()
}

// Config configures a Loop.
type Config struct {
	TickRate           time.Duration // period of the ticker (default 20ms)
	MaxCommandsPerTick int           // command queue capacity (default 1000)
	Logger             *slog.Logger
}

// Loop is a fixed-rate control loop. Every tick it applies queued
// commands, ticks its participants and runs the scheduler, all on one
// goroutine.
type Loop struct {
	sched       Runner
	logger      *slog.Logger
	tickRate    time.Duration
	maxCommands int

	mu           sync.Mutex
	participants []Participant
	batch        []commandWithMeta
	sequenceNum  uint64
	tickNum      uint64
	now          time.Duration

	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewLoop creates a loop running sched.
func NewLoop(sched Runner, cfg Config) *Loop {
	if cfg.MaxCommandsPerTick <= 0 {
		cfg.MaxCommandsPerTick = 1000
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 20 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Loop{
		sched:       sched,
		logger:      cfg.Logger,
		tickRate:    cfg.TickRate,
		maxCommands: cfg.MaxCommandsPerTick,
		batch:       make([]commandWithMeta, 0, cfg.MaxCommandsPerTick),
	}
}

// Add registers a participant. Participants are ticked in the order they
// were added.
func (l *Loop) Add(p Participant) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.participants = append(l.participants, p)
}

// Send queues cmd for the next tick. Safe from any goroutine.
func (l *Loop) Send(cmd Command) error {
	return l.SendWithPriority(cmd, 0)
}

// SendWithPriority queues cmd ahead of lower-priority commands of the same
// tick.
func (l *Loop) SendWithPriority(cmd Command, priority int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.batch) >= l.maxCommands {
		return ErrQueueFull
	}
	l.batch = append(l.batch, commandWithMeta{
		Command:     cmd,
		SequenceNum: l.sequenceNum,
		Priority:    priority,
	})
	l.sequenceNum++
	return nil
}

// Start runs the loop on a new goroutine until Stop is called or ctx is
// done.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped != nil {
		l.mu.Unlock()
		return ErrRunning
	}
	ctx, l.cancel = context.WithCancel(ctx)
	stopped := make(chan struct{})
	l.stopped = stopped
	l.mu.Unlock()

	go func() {
		defer close(stopped)
		l.run(ctx)
	}()
	return nil
}

// Stop halts a loop started with Start and waits for the current tick to
// finish.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, stopped := l.cancel, l.stopped
	l.cancel, l.stopped = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// Run starts the loop and blocks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	l.Stop()
	return nil
}

func (l *Loop) run(ctx context.Context) {
	ticker := time.NewTicker(l.tickRate)
	defer ticker.Stop()

	start := time.Now()
	l.logger.Info("control loop started", "tick_rate", l.tickRate)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("control loop stopped", "ticks", l.TickNumber())
			return
		case <-ticker.C:
			l.Step(time.Since(start))
		}
	}
}

// TickNumber returns the number of completed ticks.
func (l *Loop) TickNumber() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tickNum
}

// Now returns the time passed to the latest tick.
func (l *Loop) Now() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}
