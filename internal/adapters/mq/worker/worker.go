// Package worker runs analysis tasks pulled off the queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/resumatch/internal/adapters/mq/queue"
	"github.com/okian/resumatch/internal/domain/analysis"
	"github.com/okian/resumatch/internal/domain/dedupe"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultMaxAttempts      = 3
	metricsUpdateInterval   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// ErrAlreadyStarted is returned by Pool.Start on a second call.
var ErrAlreadyStarted = errors.New("worker pool already started")

// Processor runs one analysis task.
type Processor interface {
	Process(ctx context.Context, task model.AnalysisTask) error
}

// Worker consumes deliveries and acknowledges them according to the
// outcome of processing.
//
// A delivery whose candidate was already handled by this process is acked
// without processing. Success and fatal errors ack. A retriable error requeues
// the task until MaxAttempts is reached and then drops it; the record stays
// pending.
type Worker struct {
	proc        Processor
	deliveries  <-chan queue.Delivery
	dedupe      dedupe.Deduper
	maxAttempts int
	name        string

	done chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker reading from deliveries.
func NewWorker(proc Processor, deliveries <-chan queue.Delivery, opts ...Option) *Worker {
	w := &Worker{
		proc:        proc,
		deliveries:  deliveries,
		maxAttempts: defaultMaxAttempts,
		name:        "worker",
		done:        make(chan struct{}),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes deliveries until the channel is closed. ctx is passed to the
// processor; canceling it aborts the task in flight.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	for d := range w.deliveries {
		w.Handle(ctx, d)
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Handle processes a single delivery and settles it.
func (w *Worker) Handle(ctx context.Context, d queue.Delivery) {
	id := d.Task.CandidateID
	ctx = logger.WithFields(ctx,
		logger.String("worker", w.name),
		logger.Int("attempt", d.Attempt),
	)

	if w.dedupe != nil && w.dedupe.SeenAndRecord(ctx, id) {
		metrics.RecordDuplicate()
		w.logger.Debug(ctx, "skipping duplicate delivery", logger.Int64("candidate_id", id))
		w.settle(ctx, d.Ack())
		return
	}

	err := w.proc.Process(ctx, d.Task)
	switch {
	case err == nil:
		w.settle(ctx, d.Ack())

	case analysis.IsRetriable(err):
		metrics.RecordWorkerError("retriable")
		if w.dedupe != nil {
			w.dedupe.Unrecord(ctx, id)
		}
		if d.Attempt < w.maxAttempts {
			metrics.RecordAnalysis(metrics.OutcomeRetried)
			w.logger.Warn(ctx, "task failed; requeueing", logger.Int64("candidate_id", id), logger.Error(err))
			w.settle(ctx, d.Nack(true))
			return
		}
		metrics.RecordAnalysis(metrics.OutcomeDropped)
		w.logger.Error(ctx, "task exhausted its attempts; record stays pending",
			logger.Int64("candidate_id", id),
			logger.Int("max_attempts", w.maxAttempts),
			logger.Error(err),
		)
		w.settle(ctx, d.Nack(false))

	default:
		metrics.RecordWorkerError("fatal")
		w.logger.Info(ctx, "task finished with a failed record", logger.Int64("candidate_id", id), logger.Error(err))
		w.settle(ctx, d.Ack())
	}
}

func (w *Worker) settle(ctx context.Context, err error) {
	if err != nil {
		metrics.RecordWorkerError("ack")
		w.logger.Error(ctx, "failed to settle delivery", logger.Error(err))
	}
}

// Pool manages multiple workers sharing one consumer channel.
type Pool struct {
	size   int
	queue  queue.Queue
	proc   Processor
	dedupe dedupe.Deduper

	maxAttempts int
	drain       bool

	mu      sync.Mutex
	workers []*Worker
	cancel  context.CancelFunc
	stop    chan struct{}

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A non-positive count falls back
// to twice the number of CPUs.
func NewPool(workerCount int, q queue.Queue, proc Processor, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		size:        workerCount,
		queue:       q,
		proc:        proc,
		maxAttempts: defaultMaxAttempts,
		stop:        make(chan struct{}),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins consuming. Tasks run under ctx; consumption stops on Shutdown.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.workers != nil {
		return ErrAlreadyStarted
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	deliveries, err := p.queue.Dequeue(consumeCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("start consuming: %w", err)
	}
	p.cancel = cancel

	p.workers = make([]*Worker, p.size)
	for i := range p.workers {
		w := NewWorker(p.proc, deliveries,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
			WithDeduper(p.dedupe),
			WithMaxAttempts(p.maxAttempts),
		)
		p.workers[i] = w
		go w.Run(context.WithoutCancel(ctx))
	}
	metrics.UpdateWorkerCount(p.size)
	go p.startMetricsUpdater(consumeCtx)

	p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.size), logger.Int("max_attempts", p.maxAttempts))
	return nil
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			metrics.UpdateQueueSize(p.queue.Len(ctx))
		}
	}
}

// Shutdown stops the pool. With draining enabled the queue is closed and the
// workers finish what is buffered; otherwise consumption stops at once and only
// the tasks in flight complete. It waits at most until ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	workers := p.workers
	cancel := p.cancel
	p.mu.Unlock()
	if workers == nil {
		return nil
	}

	select {
	case <-p.stop:
		return nil
	default:
		close(p.stop)
	}

	if p.drain {
		if err := p.queue.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	} else {
		cancel()
	}

	shutdownCtx, done := context.WithTimeout(ctx, poolShutdownTimeout)
	defer done()
	defer cancel()

	for i, w := range workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	p.logger.Info(ctx, "worker pool stopped")
	return nil
}
