package orchestration

import (
	"context"
	"sync"
)

// deltaQueue is an unbounded FIFO between a turn and its event streamer.
// push never blocks, so a client that stops reading cannot hold up the turn.
type deltaQueue struct {
	mu     sync.Mutex
	items  []Delta
	closed bool
	ready  chan struct{}
}

func newDeltaQueue(capacity int) *deltaQueue {
	return &deltaQueue{
		items: make([]Delta, 0, capacity),
		ready: make(chan struct{}, 1),
	}
}

func (q *deltaQueue) push(delta Delta) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, delta)
	q.mu.Unlock()

	q.signal()
}

// close marks the end of the turn. Queued deltas can still be popped.
func (q *deltaQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.signal()
}

func (q *deltaQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop waits for the next delta. It returns false once the queue is closed
// and empty, and ctx's error if ctx ends first.
func (q *deltaQueue) pop(ctx context.Context) (Delta, bool, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			delta := q.items[0]
			q.items[0] = Delta{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return delta, true, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return Delta{}, false, nil
		}

		select {
		case <-q.ready:
		case <-ctx.Done():
			return Delta{}, false, ctx.Err()
		}
	}
}
