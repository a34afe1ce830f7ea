// Package queue is a bounded in-memory queue feeding the batch workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/brevet/pkg/metrics"
)

const defaultCapacity = 1024

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item. It returns false when the queue is full, closed
	// or ctx is done.
	Enqueue(ctx context.Context, item T) bool

	// Dequeue returns a channel that yields items until the queue is
	// closed and drained, or ctx is done.
	Dequeue(ctx context.Context) <-chan T

	// Len returns the current number of queued items.
	Len() int

	// Close stops accepting items. Queued items can still be dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemory implements Queue using a buffered channel.
type InMemory[T any] struct {
	items    chan T
	capacity int

	mu     sync.RWMutex
	closed bool
}

// New creates an in-memory queue.
func New[T any](opts ...Option) *InMemory[T] {
	cfg := settings{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &InMemory[T]{
		items:    make(chan T, cfg.capacity),
		capacity: cfg.capacity,
	}

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds an item to the queue.
func (q *InMemory[T]) Enqueue(ctx context.Context, item T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejection("closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejection("context_cancelled")
		return false
	}

	select {
	case q.items <- item:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items))
		return true
	default:
		metrics.RecordQueueRejection("queue_full")
		return false
	}
}

// Dequeue returns a channel that receives items as they become available.
// Call it once and share the channel between consumers.
func (q *InMemory[T]) Dequeue(ctx context.Context) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- item:
					metrics.RecordQueueDequeue()
					metrics.UpdateQueueSize(len(q.items))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued items.
func (q *InMemory[T]) Len() int {
	return len(q.items)
}

// Close gracefully shuts down the queue.
func (q *InMemory[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemory[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
