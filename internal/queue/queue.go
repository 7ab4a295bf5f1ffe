// Package queue implements the bounded, blocking FIFO buffer between the
// engine's request path and the worker pool. Blocking enqueues are the
// system's backpressure mechanism.
package queue

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrClosed is returned once the queue has been closed: immediately on
	// enqueue, and on dequeue after the buffer has drained.
	ErrClosed = errors.New("queue is closed")
	// ErrCanceled is returned when the caller's cancellation token was
	// observed set during a blocking wait.
	ErrCanceled = errors.New("queue wait canceled")
)

const (
	// DefaultCapacity is used when the configured capacity is zero.
	DefaultCapacity = 64

	// pollInterval bounds how long a blocked waiter can go without
	// re-checking its exit conditions. A cancellation set elsewhere is
	// observed within one interval rather than instantaneously; that
	// bounded latency buys us a single shared token instead of an
	// interrupt channel per caller.
	pollInterval = 100 * time.Millisecond
)

// Queue is a fixed-capacity FIFO of jobs with two blocking operations and a
// cooperative shutdown protocol. A single mutex guards the buffer; separate
// conditions wake enqueuers (space available) and dequeuers (item
// available).
type Queue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf  []Job // ring buffer, fixed at construction
	head int
	size int

	closed   bool
	stopPoll chan struct{}
}

// New creates a queue. A capacity of zero (or less) is coerced to
// DefaultCapacity; the capacity never changes afterwards.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{
		buf:      make([]Job, capacity),
		stopPoll: make(chan struct{}),
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	go q.pollWake()
	return q
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Len returns the number of buffered jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Enqueue appends job, blocking while the buffer is full. It fails with
// ErrClosed once Close has been called and with ErrCanceled once tok is
// observed set; both conditions are re-checked under the lock before and
// during every wait.
func (q *Queue) Enqueue(job Job, tok *Token) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closed {
			return ErrClosed
		}
		if tok != nil && tok.Canceled() {
			return ErrCanceled
		}
		if q.size < len(q.buf) {
			q.buf[(q.head+q.size)%len(q.buf)] = job
			q.size++
			q.notEmpty.Signal()
			return nil
		}
		q.notFull.Wait()
	}
}

// Dequeue removes and returns the oldest job, blocking while the buffer is
// empty. After Close it keeps draining buffered jobs in order and only then
// fails with ErrClosed; ErrCanceled is returned once tok is observed set.
func (q *Queue) Dequeue(tok *Token) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.size > 0 {
			job := q.buf[q.head]
			q.buf[q.head] = Job{}
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			q.notFull.Signal()
			return job, nil
		}
		if q.closed {
			return Job{}, ErrClosed
		}
		if tok != nil && tok.Canceled() {
			return Job{}, ErrCanceled
		}
		q.notEmpty.Wait()
	}
}

// Close marks the queue closed and wakes every waiter. Buffered jobs remain
// dequeuable; new enqueues fail immediately. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.stopPoll)
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// pollWake periodically wakes all waiters so that a token canceled by
// another goroutine is observed within one poll interval even without a
// state change. It exits when the queue closes.
func (q *Queue) pollWake() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stopPoll:
			return
		case <-ticker.C:
			q.mu.Lock()
			q.notFull.Broadcast()
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		}
	}
}
