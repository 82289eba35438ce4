// Package queue carries analysis tasks from submission to the workers with
// at-least-once delivery.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
)

const defaultQueueCapacity = 1_000

// Publisher accepts tasks for asynchronous processing.
type Publisher interface {
	// Enqueue hands the task to the queue without waiting for it to run.
	Enqueue(ctx context.Context, task model.AnalysisTask) error
}

// Queue is a Publisher that also feeds consumers.
type Queue interface {
	Publisher

	// Dequeue returns a channel of deliveries. The channel is closed when the
	// queue is closed or ctx is done.
	Dequeue(ctx context.Context) (<-chan Delivery, error)

	// Len returns the current number of waiting tasks.
	Len(ctx context.Context) int

	// Close stops accepting tasks and closes consumer channels.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

type envelope struct {
	task    model.AnalysisTask
	attempt int
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan envelope
	capacity int
	log      logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity, log: logger.Nop()}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan envelope, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a task. It never blocks; a full queue returns ErrFull.
func (q *InMemoryQueue) Enqueue(ctx context.Context, task model.AnalysisTask) error {
	if err := q.push(ctx, envelope{task: task, attempt: 1}); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}
	metrics.RecordQueueEnqueue()
	return nil
}

func (q *InMemoryQueue) push(ctx context.Context, e envelope) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.items <- e:
		metrics.UpdateQueueSize(len(q.items))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d", ErrFull, q.capacity)
	}
}

// Dequeue returns a channel that will receive deliveries as they become available.
// Nack with requeue puts the task back at the tail of the queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) (<-chan Delivery, error) {
	if q.IsClosed() {
		return nil, ErrClosed
	}
	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-q.items:
				if !ok {
					return
				}
				metrics.UpdateQueueSize(len(q.items))
				d := NewDelivery(e.task, e.attempt, func() error { return nil }, func(requeue bool) error {
					if !requeue {
						return nil
					}
					return q.push(context.Background(), envelope{task: e.task, attempt: e.attempt + 1})
				})
				select {
				case out <- d:
				case <-ctx.Done():
					// Not handed out; put it back for the next consumer.
					if err := q.push(context.Background(), e); err != nil {
						metrics.RecordQueueEnqueueError()
						q.log.Error(ctx, "failed to return undelivered task",
							logger.Int64("candidate_id", e.task.CandidateID),
							logger.String("task_id", e.task.TaskID),
							logger.Int("attempt", e.attempt),
							logger.Error(err))
					}
					return
				}
			}
		}
	}()
	return out, nil
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue. Tasks still buffered are drained by consumers.
func (q *InMemoryQueue) Close() error {
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
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
