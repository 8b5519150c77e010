// Package queue holds pending snapshot refresh requests.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pitwall/pkg/metrics"
)

const defaultCapacity = 8

// RefreshRequest asks the refresher to reload every artifact.
type RefreshRequest struct {
	ID          string
	Reason      string
	RequestedAt time.Time
}

// NewRefreshRequest stamps a request with a fresh ID and the current time.
func NewRefreshRequest(reason string) RefreshRequest {
	return RefreshRequest{ID: uuid.NewString(), Reason: reason, RequestedAt: time.Now()}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. It returns false when the queue is full or closed.
	Enqueue(ctx context.Context, r RefreshRequest) bool
	// Dequeue returns a channel that is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan RefreshRequest
	// Len returns the number of pending requests.
	Len(ctx context.Context) int
	// Close stops accepting requests.
	Close() error
	// IsClosed reports whether Close was called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan RefreshRequest
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan RefreshRequest, q.capacity)
	metrics.UpdateRefreshQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r RefreshRequest) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordRefreshRequest("rejected")
		return false
	}

	select {
	case q.requests <- r:
		metrics.RecordRefreshRequest("accepted")
		metrics.UpdateRefreshQueueSize(len(q.requests))
		return true
	case <-ctx.Done():
		metrics.RecordRefreshRequest("rejected")
		return false
	default:
		metrics.RecordRefreshRequest("rejected")
		return false
	}
}

// Dequeue implements Queue.Dequeue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan RefreshRequest {
	out := make(chan RefreshRequest)
	go func() {
		defer close(out)
		for r := range q.requests {
			metrics.UpdateRefreshQueueSize(len(q.requests))
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.requests)
}

// Close implements Queue.Close.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
