// Package worker runs the fixed pool of goroutines that drain the job queue
// and execute tasks.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kmcrae/herald/internal/log"
	"github.com/kmcrae/herald/internal/queue"
	"github.com/kmcrae/herald/internal/task"
)

// defaultWorkers is used when the configured worker count is zero.
const defaultWorkers = 4

// Result is produced exactly once per dequeued job, success or failure.
// There is no retry: a failure is terminal for its job and reported once.
type Result struct {
	Job        queue.Job
	Output     task.Output
	Err        string // empty when the run succeeded
	FinishedAt time.Time
	Duration   time.Duration
}

// Pool owns the worker goroutines. Results are emitted in completion order
// on the channel returned by Results, whose producer side closes only after
// every worker has exited.
type Pool struct {
	queue   *queue.Queue
	reg     *task.Registry
	token   *queue.Token
	workers int

	// baseCtx is handed to task runs. It is deliberately not canceled on
	// shutdown: a worker mid-invocation finishes naturally.
	baseCtx context.Context

	results chan Result
	wg      sync.WaitGroup
	logger  *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a pool. A worker count of zero selects defaultWorkers; any
// other value is clamped to at least one. The token is shared with the
// composition root, which threads it into every blocking call.
func New(ctx context.Context, reg *task.Registry, q *queue.Queue, tok *queue.Token, workers int) *Pool {
	if workers == 0 {
		workers = defaultWorkers
	}
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		queue:   q,
		reg:     reg,
		token:   tok,
		workers: workers,
		baseCtx: ctx,
		results: make(chan Result, workers),
		logger:  log.WithComponent("worker"),
	}
}

// Workers returns the fixed worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Results returns the channel carrying one Result per dequeued job.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Start spawns the worker loops. Only the first call has effect.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 1; i <= p.workers; i++ {
			p.wg.Add(1)
			go p.run(i)
		}
		p.logger.Info("worker pool started", "workers", p.workers)
	})
}

// Submit enqueues job under the pool's shared cancellation token. The call
// blocks while the queue is full; that blocking is the system's
// backpressure.
func (p *Pool) Submit(job queue.Job) error {
	if err := p.queue.Enqueue(job, p.token); err != nil {
		return fmt.Errorf("failed to queue job: %w", err)
	}
	return nil
}

// Shutdown stops the pool: close the queue (no new jobs, buffered ones may
// drain), set the shared token, join every worker, and only then close the
// result channel. Closing the producer side any earlier would lose results
// from jobs mid-flight at the moment of shutdown. A worker inside a task
// invocation is not preempted; Shutdown waits for it.
func (p *Pool) Shutdown() {
	p.stopOnce.Do(func() {
		p.queue.Close()
		p.token.Cancel()
		p.wg.Wait()
		close(p.results)
		p.logger.Info("worker pool stopped")
	})
}

// run is one worker loop: dequeue until the queue reports closed or
// canceled, executing each job and emitting exactly one result for it.
func (p *Pool) run(id int) {
	defer p.wg.Done()
	logger := p.logger.With("worker", id)

	for {
		job, err := p.queue.Dequeue(p.token)
		if err != nil {
			logger.Debug("worker exiting", "reason", err)
			return
		}
		p.results <- p.execute(logger, job)
	}
}

func (p *Pool) execute(logger *slog.Logger, job queue.Job) Result {
	start := time.Now()

	var out task.Output
	var errMsg string

	t, ok := p.reg.Lookup(job.TaskName)
	switch {
	case !ok:
		errMsg = fmt.Sprintf("unknown task: %s", job.TaskName)
	default:
		if err := t.Validate(job.Input); err != nil {
			errMsg = err.Error()
		} else if o, err := t.Run(p.baseCtx, job.Input); err != nil {
			errMsg = err.Error()
		} else {
			out = o
		}
	}

	dur := time.Since(start)
	if errMsg != "" {
		logger.Warn("job failed", "job_id", job.ID, "task", job.TaskName, "duration", dur, "error", errMsg)
	} else {
		logger.Debug("job executed", "job_id", job.ID, "task", job.TaskName, "duration", dur)
	}

	return Result{
		Job:        job,
		Output:     out,
		Err:        errMsg,
		FinishedAt: time.Now(),
		Duration:   dur,
	}
}
