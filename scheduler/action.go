// Package scheduler is a cooperative, cycle-based action runner.
//
// Actions are submitted once and then executed incrementally, one OnExecute
// call per cycle, until they report Done or are cancelled. Nothing in this
// package blocks or spawns goroutines; the owner calls Run once per control
// loop period.
//
//	sched := scheduler.New()
//	h := sched.Submit(scheduler.Sequence(
//		scheduler.RunOnce(func() { fmt.Println("first") }),
//		scheduler.Repeat(func() { fmt.Println("every cycle") }),
//	))
//	sched.Run() // prints "first", then "every cycle"
//	h.Cancel()
package scheduler

// Status is returned by Action.OnExecute.
type Status int

const (
	// Continue keeps the action scheduled for the next cycle.
	Continue Status = iota
	// Done completes the action.
	Done
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Action is a schedulable unit of work.
//
// OnStart runs once when the action is submitted. OnExecute runs once per
// cycle until it returns Done. OnCancel runs at most once, only when the
// action is interrupted before completing, and must perform any cleanup
// itself.
type Action interface {
	OnStart()
	OnExecute() Status
	OnCancel()
}

// Namer is implemented by actions that carry a display name for logs.
type Namer interface {
	Name() string
}

// Handle refers to a submitted action.
type Handle interface {
	// Cancel interrupts the action if it is still running. Safe to call
	// more than once and after completion.
	Cancel()
	// Done reports whether the action completed or was cancelled.
	Done() bool
	// ID is the submission sequence number.
	ID() uint64
}

// NameOf returns the action name, or "" if it has none.
func NameOf(a Action) string {
	if n, ok := a.(Namer); ok {
		return n.Name()
	}
	return ""
}
