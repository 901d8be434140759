package service

import (
	"context"
	"log/slog"
	"sync"
)

type writeJob struct {
	name string
	fn   func(ctx context.Context) error
}

// writeQueue runs side effects one at a time in submission order on a
// background goroutine. submit never blocks, so it is safe under the
// controller lock. Failures are logged and dropped.
type writeQueue struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []writeJob
	closed  bool

	wake    chan struct{}
	stopped chan struct{}
}

func newWriteQueue(logger *slog.Logger) *writeQueue {
	q := &writeQueue{
		logger:  logger,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *writeQueue) submit(name string, fn func(ctx context.Context) error) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("write queue closed, dropping job", "job", name)
		return false
	}
	q.pending = append(q.pending, writeJob{name: name, fn: fn})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

func (q *writeQueue) run() {
	defer close(q.stopped)
	ctx := context.Background()
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, job := range batch {
			if err := job.fn(ctx); err != nil {
				q.logger.Error("background write failed", "job", job.name, "error", err)
			}
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-q.wake
	}
}

// flush waits until every job submitted before the call has run.
func (q *writeQueue) flush(ctx context.Context) error {
	done := make(chan struct{})
	if !q.submit("flush", func(context.Context) error { close(done); return nil }) {
		<-q.stopped
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains the queue and stops the worker.
func (q *writeQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.stopped
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.stopped
}
