package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is the smallest useful unit for the batch queue.
type Job struct {
	Doc         RawDocument
	SubmittedAt time.Time
}

// ResultFunc receives each finished run. Called from worker goroutines;
// implementations must be safe for concurrent use.
type ResultFunc func(job Job, res Result)

// Queue is a bounded worker pool over a shared Processor. Every stage of a
// run is pure with respect to its inputs except the duplicate hash store,
// which synchronizes internally, so parallel workers need no extra
// coordination.
type Queue struct {
	proc    *Processor
	logger  *slog.Logger
	sink    ResultFunc
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(proc *Processor, logger *slog.Logger, sink ResultFunc, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		proc:    proc,
		logger:  logger,
		sink:    sink,
		workers: 1,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res := q.proc.Run(ctx, job.Doc)
					cancel()

					if q.sink != nil {
						q.sink(job, res)
					}
					q.logger.Debug("worker processed document",
						"worker_id", workerID, "doc", job.Doc.Name, "status", string(res.Status),
					)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue submits a document; applies backpressure when the queue is full.
func (q *Queue) Enqueue(_ context.Context, job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "doc", job.Doc.Name)
		return
	}
	q.ch <- job
}

// Shutdown stops accepting work and drains in-flight jobs, bounded by ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Debug("queue drained, shutdown complete")
	}
}
