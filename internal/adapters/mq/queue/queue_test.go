package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func task(id int64) model.AnalysisTask {
	return model.AnalysisTask{TaskID: "t", CandidateID: id, Content: "JVBERi0="}
}

func receive(t *testing.T, ch <-chan Delivery) Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		if !ok {
			t.Fatal("delivery channel closed")
		}
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	return Delivery{}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, task(1)); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	ch, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	d := receive(t, ch)
	if d.Task.CandidateID != 1 || d.Attempt != 1 {
		t.Errorf("unexpected delivery: %+v", d)
	}
	if err := d.Ack(); err != nil {
		t.Errorf("ack: %v", err)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	_ = q.Enqueue(ctx, task(1))
	_ = q.Enqueue(ctx, task(2))
	if err := q.Enqueue(ctx, task(3)); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_NackRequeues(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = q.Enqueue(ctx, task(7))
	ch, _ := q.Dequeue(ctx)

	first := receive(t, ch)
	if err := first.Nack(true); err != nil {
		t.Fatalf("nack: %v", err)
	}
	second := receive(t, ch)
	if second.Task.CandidateID != 7 || second.Attempt != 2 {
		t.Errorf("expected redelivery with attempt 2, got %+v", second)
	}

	if err := second.Nack(false); err != nil {
		t.Fatalf("drop: %v", err)
	}
	select {
	case d := <-ch:
		t.Errorf("dropped task was redelivered: %+v", d)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()
	_ = q.Enqueue(ctx, task(1))

	ch, _ := q.Dequeue(ctx)
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
	if err := q.Enqueue(ctx, task(2)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := q.Dequeue(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Dequeue, got %v", err)
	}

	// Buffered work is still drained, then the channel closes.
	d := receive(t, ch)
	if d.Task.CandidateID != 1 {
		t.Errorf("expected buffered task, got %+v", d)
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to close")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after drain")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Enqueue(ctx, task(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// recordingLogger keeps Error entries.
type recordingLogger struct {
	logger.Logger
	mu     sync.Mutex
	errors []string
	fields [][]logger.Field
}

func (r *recordingLogger) Error(_ context.Context, msg string, fields ...logger.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
	r.fields = append(r.fields, fields)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func TestInMemoryQueue_UndeliveredTaskOnFullQueue(t *testing.T) {
	Convey("Given a consumer holding a task when the queue fills up", t, func() {
		rec := &recordingLogger{Logger: logger.Nop()}
		q := NewInMemoryQueue(WithCapacity(1), WithLogger(rec))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		So(q.Enqueue(context.Background(), task(1)), ShouldBeNil)
		_, err := q.Dequeue(ctx)
		So(err, ShouldBeNil)

		// The consumer goroutine owns task 1 once the buffer is empty.
		deadline := time.Now().Add(time.Second)
		for q.Len(context.Background()) != 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		So(q.Len(context.Background()), ShouldEqual, 0)
		So(q.Enqueue(context.Background(), task(2)), ShouldBeNil)

		Convey("When the consumer is cancelled before handing it out", func() {
			cancel()
			deadline := time.Now().Add(time.Second)
			for rec.count() == 0 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}

			Convey("Then the lost task is logged with its candidate", func() {
				So(rec.count(), ShouldEqual, 1)
				So(rec.errors[0], ShouldEqual, "failed to return undelivered task")
				var candidate any
				for _, f := range rec.fields[0] {
					if f.Key == "candidate_id" {
						candidate = f.Value
					}
				}
				So(candidate, ShouldEqual, int64(1))
				So(q.Len(context.Background()), ShouldEqual, 1)
			})
		})
	})
}
