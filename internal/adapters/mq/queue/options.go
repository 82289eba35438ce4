package queue

import "github.com/okian/resumatch/pkg/logger"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithLogger sets the logger for tasks the queue could not keep.
func WithLogger(l logger.Logger) Option {
	return func(q *InMemoryQueue) {
		if l != nil {
			q.log = l
		}
	}
}

// AMQPOption applies a configuration option to the AMQPQueue.
type AMQPOption func(*AMQPQueue)

// WithQueueName sets the durable queue name.
func WithQueueName(name string) AMQPOption {
	return func(q *AMQPQueue) {
		if name != "" {
			q.name = name
		}
	}
}

// WithPrefetch caps unacknowledged deliveries per consumer.
func WithPrefetch(n int) AMQPOption {
	return func(q *AMQPQueue) {
		if n > 0 {
			q.prefetch = n
		}
	}
}

// WithAMQPLogger sets the logger for broker diagnostics.
func WithAMQPLogger(l logger.Logger) AMQPOption {
	return func(q *AMQPQueue) {
		if l != nil {
			q.log = l
		}
	}
}
