// Package engine ties routing, queueing, execution, and result delivery
// together. It owns the dispatch loop that turns worker results into
// outbound responses.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kmcrae/herald/internal/events"
	"github.com/kmcrae/herald/internal/log"
	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
	"github.com/kmcrae/herald/internal/router"
	"github.com/kmcrae/herald/internal/task"
	"github.com/kmcrae/herald/internal/worker"
)

// defaultDeliverTimeout bounds how long the dispatch loop waits on a single
// sink delivery before dropping the result and moving on.
const defaultDeliverTimeout = 10 * time.Second

// Sink delivers one finished result back to the channel the job came from.
// Deliver may block on network I/O; the engine bounds that wait.
type Sink interface {
	Deliver(job queue.Job, resp message.Response) error
}

// Options tunes the engine. Zero values select defaults; UserRate zero
// disables per-user rate limiting.
type Options struct {
	DeliverTimeout time.Duration
	UserRate       float64
	UserBurst      int
	Hub            *events.Hub
	Sink           Sink
}

// Core is the dispatch engine. Handle is safe for concurrent use from
// multiple adapters; the dispatch loop is a single goroutine so results are
// delivered one at a time in completion order.
type Core struct {
	reg    *task.Registry
	router router.Router
	pool   *worker.Pool
	hub    *events.Hub
	logger *slog.Logger

	deliverTimeout time.Duration

	userRate  rate.Limit
	userBurst int
	limMu     sync.Mutex
	limiters  map[string]*rate.Limiter

	sinkMu sync.RWMutex
	sink   Sink

	dispatchDone chan struct{}
	startOnce    sync.Once
	stopOnce     sync.Once
}

// New creates an engine over an already constructed registry, router, and
// pool. Start must be called before Handle.
func New(reg *task.Registry, rtr router.Router, pool *worker.Pool, opts Options) *Core {
	timeout := opts.DeliverTimeout
	if timeout <= 0 {
		timeout = defaultDeliverTimeout
	}
	burst := opts.UserBurst
	if burst < 1 {
		burst = 1
	}
	return &Core{
		reg:            reg,
		router:         rtr,
		pool:           pool,
		hub:            opts.Hub,
		logger:         log.WithComponent("engine"),
		deliverTimeout: timeout,
		userRate:       rate.Limit(opts.UserRate),
		userBurst:      burst,
		limiters:       make(map[string]*rate.Limiter),
		sink:           opts.Sink,
		dispatchDone:   make(chan struct{}),
	}
}

// SetSink replaces the delivery sink. Results finishing while no sink is set
// are dropped with a warning.
func (c *Core) SetSink(s Sink) {
	c.sinkMu.Lock()
	c.sink = s
	c.sinkMu.Unlock()
}

// Start launches the worker pool and the dispatch loop. Only the first call
// has effect.
func (c *Core) Start() {
	c.startOnce.Do(func() {
		c.pool.Start()
		go c.dispatch()
		c.logger.Info("engine started", "deliver_timeout", c.deliverTimeout)
	})
}

// Shutdown stops the pool and waits for the dispatch loop to drain every
// remaining result. Results still in flight at shutdown are delivered on a
// best-effort basis before this returns.
func (c *Core) Shutdown() {
	c.stopOnce.Do(func() {
		c.pool.Shutdown()
		<-c.dispatchDone
		c.logger.Info("engine stopped")
	})
}

// Handle processes one inbound message synchronously up to the point of
// enqueueing a job, then returns an immediate acknowledgement. The real
// answer arrives later through the sink.
func (c *Core) Handle(msg message.Message) message.Response {
	if lim := c.limiter(msg.UserID); lim != nil && !lim.Allow() {
		c.logger.Warn("rate limited", "user_id", msg.UserID, "channel", msg.Channel)
		return message.Response{Text: "rate limited, slow down", Ephemeral: true}
	}

	route, err := c.router.Route(msg)
	if err != nil {
		return message.Response{Text: err.Error(), Ephemeral: true}
	}
	if route == nil {
		return message.Response{}
	}

	t, ok := c.reg.Lookup(route.TaskName)
	if !ok {
		return message.Response{Text: fmt.Sprintf("task not found: %s", route.TaskName), Ephemeral: true}
	}
	if err := t.Validate(route.Input); err != nil {
		return message.Response{Text: err.Error(), Ephemeral: true}
	}

	job := queue.Job{
		ID:        uuid.NewString(),
		TaskName:  route.TaskName,
		Input:     route.Input,
		UserID:    msg.UserID,
		ChannelID: msg.Channel,
		CreatedAt: time.Now(),
	}
	if err := c.pool.Submit(job); err != nil {
		c.logger.Error("submit failed", "job_id", job.ID, "task", job.TaskName, "error", err)
		return message.Response{Text: err.Error(), Ephemeral: true}
	}

	c.publish(events.TypeJobSubmitted, map[string]any{
		"job_id":  job.ID,
		"task":    job.TaskName,
		"user_id": job.UserID,
		"channel": job.ChannelID,
	})
	c.logger.Info("job submitted", "job_id", job.ID, "task", job.TaskName, "user_id", job.UserID, "channel", job.ChannelID)

	// Ask jobs can take a while; the adapters show their own progress
	// indicator on an empty acknowledgement.
	if route.TaskName == "ask" {
		return message.Response{Ephemeral: true}
	}
	return message.Response{Text: "working...", Ephemeral: true}
}

// dispatch consumes worker results until the pool closes its channel,
// delivering each through the current sink.
func (c *Core) dispatch() {
	defer close(c.dispatchDone)
	for res := range c.pool.Results() {
		data := map[string]any{
			"job_id":      res.Job.ID,
			"task":        res.Job.TaskName,
			"duration_ms": res.Duration.Milliseconds(),
		}
		if res.Err != "" {
			data["error"] = res.Err
		}
		c.publish(events.TypeJobCompleted, data)

		text := formatResult(res)
		if text == "" {
			continue
		}

		c.sinkMu.RLock()
		sink := c.sink
		c.sinkMu.RUnlock()
		if sink == nil {
			c.logger.Warn("no sink, dropping result", "job_id", res.Job.ID, "task", res.Job.TaskName)
			c.publish(events.TypeResultDropped, map[string]any{"job_id": res.Job.ID, "reason": "no sink"})
			continue
		}
		c.deliver(sink, res.Job, message.Response{Text: text})
	}
}

// deliver runs one sink call with a bounded wait. On timeout the helper
// goroutine is left to finish in the background; the buffered channel keeps
// it from leaking.
func (c *Core) deliver(sink Sink, job queue.Job, resp message.Response) {
	done := make(chan error, 1)
	go func() {
		done <- sink.Deliver(job, resp)
	}()

	timer := time.NewTimer(c.deliverTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			c.logger.Warn("delivery failed", "job_id", job.ID, "channel", job.ChannelID, "error", err)
			c.publish(events.TypeResultDropped, map[string]any{"job_id": job.ID, "reason": err.Error()})
			return
		}
		c.publish(events.TypeResultDelivered, map[string]any{"job_id": job.ID, "channel": job.ChannelID})
	case <-timer.C:
		c.logger.Warn("delivery timed out", "job_id", job.ID, "channel", job.ChannelID, "timeout", c.deliverTimeout)
		c.publish(events.TypeResultDropped, map[string]any{"job_id": job.ID, "reason": "timeout"})
	}
}

// limiter returns the per-user limiter, creating it on first use. Returns
// nil when rate limiting is disabled or the user id is empty.
func (c *Core) limiter(userID string) *rate.Limiter {
	if c.userRate <= 0 || userID == "" {
		return nil
	}
	c.limMu.Lock()
	defer c.limMu.Unlock()
	lim, ok := c.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(c.userRate, c.userBurst)
		c.limiters[userID] = lim
	}
	return lim
}

func (c *Core) publish(typ string, data map[string]any) {
	if c.hub == nil {
		return
	}
	c.hub.Publish(typ, data)
}

// formatResult turns a worker result into outbound text. Empty means there
// is nothing worth delivering.
func formatResult(res worker.Result) string {
	if res.Err != "" {
		return "error: " + res.Err
	}
	if res.Output.Kind == task.OutputText {
		return res.Output.Text
	}
	return "ok"
}
