package telemetry

import (
	"context"
	"sync/atomic"

	"github.com/comalice/cyclefsm"
)

// ChannelPublisher forwards transitions to a Go channel. Publishing never
// blocks the control loop: when the channel is full the transition is
// dropped and counted.
type ChannelPublisher struct {
	ch      chan<- cyclefsm.Transition
	dropped atomic.Uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- cyclefsm.Transition) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// Publish sends t unless ctx is done or the channel is full.
func (p *ChannelPublisher) Publish(ctx context.Context, t cyclefsm.Transition) error {
	select {
	case p.ch <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.dropped.Add(1)
		return nil
	}
}

// Observe publishes t; pass it to cyclefsm.WithObserver.
func (p *ChannelPublisher) Observe(t cyclefsm.Transition) {
	_ = p.Publish(context.Background(), t)
}

// Dropped returns how many transitions were discarded on a full channel.
func (p *ChannelPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close closes the output channel. No Publish may follow.
func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
