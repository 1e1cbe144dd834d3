package feed

import (
	"context"

	"github.com/minjispace/web-pet/game"
)

// Broadcaster is a minimal pub/sub for session snapshot updates.
type Broadcaster struct {
	ch chan game.State
}

// NewBroadcaster creates a broadcaster with a buffered channel.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{
		ch: make(chan game.State, buffer),
	}
}

// Send publishes a snapshot (non-blocking with drop on full buffer).
func (b *Broadcaster) Send(snapshot game.State) {
	select {
	case b.ch <- snapshot:
	default:
		// drop if listeners are slow; keep simple
	}
}

// Listen returns a channel plus a cancel function to stop listening.
func (b *Broadcaster) Listen(ctx context.Context) (<-chan game.State, context.CancelFunc) {
	listenerCtx, cancel := context.WithCancel(ctx)
	out := make(chan game.State, cap(b.ch))

	go func() {
		defer close(out)
		for {
			select {
			case <-listenerCtx.Done():
				return
			case snapshot, ok := <-b.ch:
				if !ok {
					return
				}
				select {
				case out <- snapshot:
				case <-listenerCtx.Done():
					return
				}
			}
		}
	}()

	return out, cancel
}
