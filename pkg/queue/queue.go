// Package queue provides the bounded buffer between the socket readers and the packet worker.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/tilinna/clock"
)

// DefaultPollInterval bounds how long Dequeue sleeps before looking at the queue again.
const DefaultPollInterval = 100 * time.Millisecond

// Queue is a fixed capacity FIFO of packets. When full, Enqueue evicts the oldest packet to make room.
// Enqueue is safe for concurrent use, Dequeue expects a single consumer.
type Queue struct {
	mu     sync.Mutex
	buf    [][]byte
	head   int // index of the oldest packet
	size   int
	notify chan struct{}

	onDrop       func()
	pollInterval time.Duration
}

// New creates a Queue holding up to capacity packets. onDrop, if not nil, is called for every evicted packet.
func New(capacity int, onDrop func()) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		buf:          make([][]byte, capacity),
		notify:       make(chan struct{}, 1),
		onDrop:       onDrop,
		pollInterval: DefaultPollInterval,
	}
}

// Enqueue adds a packet to the tail of the queue. It returns false if the oldest packet was dropped to make room.
func (q *Queue) Enqueue(p []byte) bool {
	dropped := false
	q.mu.Lock()
	if q.size == len(q.buf) {
		q.buf[q.head] = nil
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		dropped = true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = p
	q.size++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	if dropped && q.onDrop != nil {
		q.onDrop()
	}
	return !dropped
}

// Dequeue removes and returns the packet at the head of the queue, waiting for one to arrive if the queue is
// empty. It returns the context error if ctx is done first.
func (q *Queue) Dequeue(ctx context.Context) ([]byte, error) {
	clck := clock.FromContext(ctx)
	for {
		if p, ok := q.tryDequeue(); ok {
			return p, nil
		}
		timer := clck.NewTimer(q.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-q.notify:
		case <-timer.C:
		}
		timer.Stop()
	}
}

func (q *Queue) tryDequeue() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return nil, false
	}
	p := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return p, true
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the capacity of the queue.
func (q *Queue) Cap() int {
	return len(q.buf)
}
