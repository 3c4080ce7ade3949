// Package realtime provides a fixed-rate control loop for cyclefsm engines.
//
// Each tick runs three phases on the loop goroutine:
//   - commands queued with Send are applied, ordered by priority and then
//     by submission sequence
//   - participants (engines) are ticked in registration order with the
//     monotonic time since the loop started
//   - the action scheduler runs one cycle
//
// Given the same sequence of Send calls and tick times the loop always
// executes the same way, regardless of which goroutines sent the commands.
//
// # Example Usage
//
//	sched := scheduler.New()
//	loop := realtime.NewLoop(sched, realtime.Config{
//		TickRate: 20 * time.Millisecond, // 50 Hz
//	})
//	loop.Add(engine)
//	_ = loop.Send(engine.Start)
//	_ = loop.Run(ctx)
//
// Engines are not safe for concurrent mutation, so other goroutines must
// control them through Send rather than calling Start or Stop directly.
// Reads such as CurrentState are safe from anywhere.
//
// Step can be called directly to drive the loop deterministically in
// tests and simulations.
package realtime
