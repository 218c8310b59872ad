// Package worker provides a background job queue processed by goroutines.
//
// Go Pattern: Goroutines and channels are Go's concurrency primitives.
// A buffered channel is the job queue, N worker goroutines read from it,
// and producers (the directory watcher, the CLI) send jobs into it.
//
// The watch command runs a single worker so documents are drafted one at a
// time: extraction and generation share one rate limiter and one cache, and
// keeping them sequential means a burst of dropped files cannot race each
// other through the provider ladder.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job represents one document waiting to be drafted.
type Job struct {
	ID        string
	Path      string
	CreatedAt time.Time
}

// NewJob creates a job for path with a fresh ID.
func NewJob(path string) Job {
	return Job{ID: uuid.NewString(), Path: path, CreatedAt: time.Now()}
}

// HandlerFunc processes a single job. Returned errors are logged, never retried.
type HandlerFunc func(ctx context.Context, job Job) error

// ErrQueueFull is returned by Submit when the queue has no room.
var ErrQueueFull = errors.New("job queue is full; try again later")

// Pool manages a pool of worker goroutines.
type Pool struct {
	// Go Pattern: This buffered channel acts as our job queue.
	jobs    chan Job
	workers int
	handle  HandlerFunc
	log     *slog.Logger

	// Go Pattern: sync.WaitGroup tracks running goroutines for graceful shutdown.
	wg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
}

// NewPool creates a new worker pool. ctx bounds every job the pool runs.
func NewPool(ctx context.Context, workers, queueSize int, handle HandlerFunc, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		handle:  handle,
		log:     logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.log.Info("🚀 starting workers", "count", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue and waits for queued jobs to finish.
// Go Pattern: Close the channel, then wait for completion.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.log.Info("⏹️  stopping workers")
		close(p.jobs)
		p.wg.Wait()
		p.cancel()
		p.log.Info("✅ all workers stopped")
	})
}

// Abort cancels in-flight jobs, drops queued ones, and waits for workers to exit.
func (p *Pool) Abort() {
	p.cancel()
	p.Stop()
}

// Submit adds a job to the queue without blocking.
func (p *Pool) Submit(job Job) error {
	// Go Pattern: `select` with `default` makes channel operations non-blocking.
	select {
	case p.jobs <- job:
		p.log.Info("📥 job queued", "id", job.ID, "path", job.Path)
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueSize returns the current number of jobs in the queue.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	// Go Pattern: `range` over a channel reads values until the channel is closed.
	for job := range p.jobs {
		if p.ctx.Err() != nil {
			p.log.Info("👷 dropping job after abort", "worker", id, "id", job.ID)
			continue
		}

		p.log.Info("👷 processing job", "worker", id, "id", job.ID, "path", job.Path)
		if err := p.run(job); err != nil {
			p.log.Error("❌ job failed", "worker", id, "id", job.ID, "error", err)
		} else {
			p.log.Info("✅ job completed", "worker", id, "id", job.ID)
		}
	}
}

// run calls the handler, turning a panic into an error so one bad document
// cannot take the worker down.
func (p *Pool) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return p.handle(p.ctx, job)
}
