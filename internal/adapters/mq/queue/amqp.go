package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
)

const (
	defaultAMQPQueue = "resume_analysis"
	attemptHeader    = "x-attempt"
	publishTimeout   = 5 * time.Second
)

// AMQPQueue is a Queue on a durable RabbitMQ queue. Messages are persistent
// and acknowledged manually. A requeue republishes the task with an incremented
// attempt header and acks the original; a drop rejects without requeue so a
// dead-letter exchange configured on the broker can pick it up.
type AMQPQueue struct {
	conn     *amqp.Connection
	name     string
	prefetch int
	log      logger.Logger

	mu     sync.Mutex
	pub    *amqp.Channel
	closed bool
}

// DialAMQP connects to url and declares the task queue.
func DialAMQP(url string, opts ...AMQPOption) (*AMQPQueue, error) {
	q := &AMQPQueue{
		name:     defaultAMQPQueue,
		prefetch: 1,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		q.name, // name
		true,   // durable
		false,  // delete when unused
		false,  // exclusive
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", q.name, err)
	}
	q.conn, q.pub = conn, ch
	return q, nil
}

// Enqueue publishes the task as a persistent JSON message.
func (q *AMQPQueue) Enqueue(ctx context.Context, task model.AnalysisTask) error {
	if err := q.publish(ctx, task, 1); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}
	metrics.RecordQueueEnqueue()
	return nil
}

func (q *AMQPQueue) publish(ctx context.Context, task model.AnalysisTask, attempt int) error {
	msg, err := encodeMessage(task, attempt)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if err := q.pub.PublishWithContext(ctx, "", q.name, false, false, msg); err != nil {
		return fmt.Errorf("publish task %s: %w", task.TaskID, err)
	}
	return nil
}

// Dequeue opens a consumer channel with the configured prefetch.
func (q *AMQPQueue) Dequeue(ctx context.Context) (<-chan Delivery, error) {
	if q.IsClosed() {
		return nil, ErrClosed
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel: %w", err)
	}
	if err := ch.Qos(q.prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	msgs, err := ch.Consume(
		q.name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", q.name, err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer func() { _ = ch.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				d, err := q.toDelivery(m)
				if err != nil {
					q.log.Error(ctx, "dropping malformed message", logger.String("message_id", m.MessageId), logger.Error(err))
					_ = m.Nack(false, false)
					continue
				}
				select {
				case out <- d:
				case <-ctx.Done():
					_ = m.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func (q *AMQPQueue) toDelivery(m amqp.Delivery) (Delivery, error) {
	task, attempt, err := decodeMessage(m.Body, m.Headers)
	if err != nil {
		return Delivery{}, err
	}
	ack := func() error { return m.Ack(false) }
	nack := func(requeue bool) error {
		if !requeue {
			return m.Nack(false, false)
		}
		if err := q.publish(context.Background(), task, attempt+1); err != nil {
			// Fall back to a broker requeue; the attempt count is not advanced.
			return m.Nack(false, true)
		}
		return m.Ack(false)
	}
	return NewDelivery(task, attempt, ack, nack), nil
}

// Len reports the number of ready messages on the broker.
func (q *AMQPQueue) Len(_ context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	st, err := q.pub.QueueDeclarePassive(q.name, true, false, false, false, nil)
	if err != nil {
		return 0
	}
	metrics.UpdateQueueSize(st.Messages)
	return st.Messages
}

// Close closes the connection; consumer channels close with it.
func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	return q.conn.Close()
}

// IsClosed returns true if the queue has been closed.
func (q *AMQPQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func encodeMessage(task model.AnalysisTask, attempt int) (amqp.Publishing, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode task: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    task.TaskID,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{attemptHeader: int32(attempt)},
		Body:         body,
	}, nil
}

func decodeMessage(body []byte, headers amqp.Table) (model.AnalysisTask, int, error) {
	var task model.AnalysisTask
	if err := json.Unmarshal(body, &task); err != nil {
		return model.AnalysisTask{}, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if task.CandidateID <= 0 {
		return model.AnalysisTask{}, 0, fmt.Errorf("%w: missing candidate_id", ErrMalformed)
	}
	return task, attemptFrom(headers), nil
}

// attemptFrom reads the attempt header, defaulting to 1.
func attemptFrom(h amqp.Table) int {
	var n int
	switch v := h[attemptHeader].(type) {
	case int:
		n = v
	case int8:
		n = int(v)
	case int16:
		n = int(v)
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case uint8:
		n = int(v)
	case uint16:
		n = int(v)
	case uint32:
		n = int(v)
	}
	if n < 1 {
		return 1
	}
	return n
}

var _ Queue = (*AMQPQueue)(nil)
var _ Queue = (*InMemoryQueue)(nil)
