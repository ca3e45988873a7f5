package dispatch

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned by Enqueue when a bounded queue has no room.
	ErrQueueFull = errors.New("dispatch: queue full")

	// ErrQueueClosed is returned once a queue has been closed.
	ErrQueueClosed = errors.New("dispatch: queue closed")

	// ErrMalformedTask is returned by Dequeue when a stored entry cannot be
	// decoded. The entry is consumed.
	ErrMalformedTask = errors.New("dispatch: malformed task")
)

// Queue holds tasks between submission and sending. Implementations must be
// safe for concurrent producers and consumers.
type Queue interface {
	// Enqueue stores t without blocking on consumers.
	Enqueue(ctx context.Context, t *Task) error

	// Dequeue blocks until a task is available or ctx is done.
	Dequeue(ctx context.Context) (*Task, error)

	// Len returns the number of waiting tasks.
	Len(ctx context.Context) (int, error)

	// Close releases the queue. Tasks already stored can still be dequeued
	// from a MemoryQueue; Enqueue fails with ErrQueueClosed.
	Close() error
}

// MemoryQueue is a bounded in-process queue. Tasks are lost on restart.
type MemoryQueue struct {
	mu     sync.RWMutex
	ch     chan *Task
	closed bool
}

// NewMemoryQueue creates a queue holding at most size tasks.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &MemoryQueue{ch: make(chan *Task, size)}
}

// Enqueue adds t, or returns ErrQueueFull when the queue is at capacity.
func (q *MemoryQueue) Enqueue(_ context.Context, t *Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue returns the oldest task. After Close it drains what is left and then
// returns ErrQueueClosed.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case t, ok := <-q.ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return t, nil
	}
}

// Len returns the number of buffered tasks.
func (q *MemoryQueue) Len(_ context.Context) (int, error) {
	return len(q.ch), nil
}

// Close stops accepting tasks. It is safe to call more than once.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	return nil
}
