// Package queue buffers submissions that are mirrored to the hosted backend.
package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/pkg/metrics"
)

const defaultQueueCapacity = 1024

// MirrorJob is one accepted submission waiting to be forwarded.
type MirrorJob struct {
	ID         uuid.UUID
	Submission model.Submission
	// Entry is the locally created entry the job was derived from.
	Entry model.WasteLogEntry
}

// NewMirrorJob stamps a job with a fresh id.
func NewMirrorJob(sub model.Submission, entry model.WasteLogEntry) MirrorJob {
	return MirrorJob{ID: uuid.New(), Submission: sub, Entry: entry}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns false, without blocking, when the queue
	// is full or closed.
	Enqueue(ctx context.Context, j MirrorJob) bool

	// Dequeue returns the receive side of the queue. It is closed by Close.
	Dequeue(ctx context.Context) <-chan MirrorJob

	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	jobs     chan MirrorJob
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan MirrorJob, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, j MirrorJob) bool { //nolint:gocritic // hugeParam: jobs travel by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

func (q *InMemoryQueue) Dequeue(context.Context) <-chan MirrorJob {
	return q.jobs
}

func (q *InMemoryQueue) Len(context.Context) int {
	q.observe()
	return len(q.jobs)
}

func (q *InMemoryQueue) observe() {
	n := len(q.jobs)
	metrics.UpdateQueueSize(n)
	metrics.UpdateQueueUtilization(float64(n) / float64(q.capacity))
}

// Close stops accepting jobs. Buffered jobs can still be drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
