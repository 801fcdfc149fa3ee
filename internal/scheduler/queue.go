// Package scheduler provides the single-consumer task queue the navigation
// engine uses for deferred continuations.
//
// Every task handed to Defer runs on the queue goroutine after the call that
// scheduled it has returned. Router change notifications and delayed
// start-up work go through the queue, so they can never re-enter the
// navigation stack that triggered them.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// ErrClosed is returned when work is scheduled on a closed queue.
var ErrClosed = errors.New("scheduler: queue closed")

// Queue runs tasks one at a time in FIFO order.
//
// Invariants:
//   - tasks run on a single goroutine, never on the caller's goroutine
//   - a task is never started before Defer returns
//   - closed transitions from false to true exactly once
type Queue struct {
	tasks  chan func()
	closed atomic.Bool
	ran    atomic.Int64

	mu      sync.Mutex
	pending int
	idle    chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// NewQueue creates a queue and starts its consumer goroutine.
func NewQueue() *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		tasks:  make(chan func(), 256),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		idle:   make(chan struct{}),
	}
	close(q.idle)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case task := <-q.tasks:
			q.exec(task)
		}
	}
}

// drain discards tasks still buffered after Close so Flush callers wake up.
// It is safe to call from several goroutines.
func (q *Queue) drain() {
	for {
		select {
		case <-q.tasks:
			q.release()
		default:
			return
		}
	}
}

func (q *Queue) exec(task func()) {
	defer q.release()
	defer func() {
		// A panicking task must not stop the consumer.
		_ = recover()
	}()
	q.ran.Inc()
	task()
}

// Defer schedules fn to run on the queue goroutine.
func (q *Queue) Defer(fn func()) error {
	if q.closed.Load() {
		return ErrClosed
	}
	q.acquire()
	select {
	case q.tasks <- fn:
		// The consumer may have drained the buffer before the send landed.
		if q.ctx.Err() != nil {
			q.drain()
		}
		return nil
	case <-q.ctx.Done():
		q.release()
		return ErrClosed
	}
}

// After schedules fn on the queue once d has elapsed.
func (q *Queue) After(d time.Duration, fn func()) error {
	if q.closed.Load() {
		return ErrClosed
	}
	q.acquire()
	time.AfterFunc(d, func() {
		defer q.release()
		_ = q.Defer(fn)
	})
	return nil
}

func (q *Queue) acquire() {
	q.mu.Lock()
	if q.pending == 0 {
		q.idle = make(chan struct{})
	}
	q.pending++
	q.mu.Unlock()
}

func (q *Queue) release() {
	q.mu.Lock()
	q.pending--
	if q.pending == 0 {
		close(q.idle)
	}
	q.mu.Unlock()
}

// Flush blocks until every task scheduled so far, including tasks they
// schedule in turn, has finished or ctx is done. It must not be called
// from a task.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Executed returns how many tasks have run.
func (q *Queue) Executed() int64 {
	return q.ran.Load()
}

// Close stops the consumer once its current task returns. Pending tasks are
// dropped. Close does not wait for the consumer, so a task may close its own
// queue; use Done to wait.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		q.cancel()
	})
	return nil
}

// Done is closed when the consumer goroutine has exited.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}
