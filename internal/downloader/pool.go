package downloader

import (
	"context"
	"sync"
	"time"

	"wparchive/pkg/checkpoint"
	errs "wparchive/pkg/errors"
	"wparchive/pkg/logger"
	"wparchive/pkg/ratelimit"
	"wparchive/pkg/storage"
)

// Result reports the outcome of one task.
type Result struct {
	Task     Task
	Err      error
	Skipped  bool
	Duration time.Duration
}

// Pool fans tasks out to concurrent download workers. Each completed task is
// recorded in the shared checkpoint as it finishes; the session persists the
// checkpoint once at the end.
type Pool struct {
	numWorkers int
	jobs       chan Task
	results    chan Result
	wg         sync.WaitGroup

	fetcher Fetcher
	store   *storage.Manager
	cp      *checkpoint.Checkpoint
	limiter ratelimit.Limiter
	log     logger.Logger
}

// NewPool creates a download pool. It does not start workers until Start.
func NewPool(numWorkers int, fetcher Fetcher, store *storage.Manager, cp *checkpoint.Checkpoint, limiter ratelimit.Limiter, log logger.Logger) *Pool {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan Task, numWorkers*2),
		results:    make(chan Result, numWorkers),
		fetcher:    fetcher,
		store:      store,
		cp:         cp,
		limiter:    limiter,
		log:        log,
	}
}

// Start launches the workers. They drain the job queue until Stop is called.
func (p *Pool) Start(ctx context.Context) {
	p.log.DebugWithFields("starting download workers", map[string]interface{}{
		"workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Submit queues a task, returning false once the context is cancelled.
func (p *Pool) Submit(ctx context.Context, task Task) bool {
	select {
	case p.jobs <- task:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop signals that no more tasks are coming and waits for the workers to
// finish, then closes the result channel.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
}

// Results returns the channel of task outcomes.
func (p *Pool) Results() <-chan Result {
	return p.results
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for task := range p.jobs {
		result := p.process(ctx, task, id)

		select {
		case p.results <- result:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) process(ctx context.Context, task Task, workerID int) Result {
	start := time.Now()
	result := Result{Task: task}

	// A file satisfied on disk or in the checkpoint is never refetched.
	if p.cp.Contains(task.Dest) || p.store.Exists(task.Dest) {
		p.cp.Add(task.Dest)
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if err := p.limiter.Wait(ctx); err != nil {
		result.Err = errs.NewCancelled("download of " + task.URL)
		result.Duration = time.Since(start)
		return result
	}

	if err := p.fetcher.Fetch(ctx, task); err != nil {
		result.Err = err
		result.Duration = time.Since(start)

		p.log.ErrorWithFields("download failed", map[string]interface{}{
			"worker_id": workerID,
			"url":       task.URL,
			"error":     err.Error(),
		})
		return result
	}

	p.cp.Add(task.Dest)
	result.Duration = time.Since(start)

	p.log.DebugWithFields("download complete", map[string]interface{}{
		"worker_id": workerID,
		"url":       task.URL,
		"file":      task.Dest,
	})

	return result
}
