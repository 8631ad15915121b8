// Package workerqueue wraps gammazero/workerpool behind a small interface,
// the way Tangerg-lynx's pkg/sync/pool.go adapts several worker-pool
// libraries behind one Pool interface. Here there's exactly one concrete
// backend, used for the orchestrator's fire-and-forget durable-cache
// writes (spec.md §5: "Writes are always
// fire-and-forget for the durable tier; the caller must not block on
// them").
package workerqueue

import (
	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
)

// Queue runs submitted tasks on a bounded pool of background goroutines.
type Queue struct {
	pool *workerpool.WorkerPool
	log  *zerolog.Logger
}

// New starts a queue with the given maximum concurrency.
func New(maxWorkers int, log *zerolog.Logger) *Queue {
	return &Queue{pool: workerpool.New(maxWorkers), log: log}
}

// Submit enqueues fn to run on a worker goroutine. Panics inside fn are
// recovered and logged so one bad background task cannot take down the
// pool.
func (q *Queue) Submit(fn func()) {
	q.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				q.log.Error().Interface("panic", r).Msg("workerqueue: recovered panic in background task")
			}
		}()
		fn()
	})
}

// StopWait drains the queue, waiting for in-flight and queued tasks to
// finish. Used at shutdown.
func (q *Queue) StopWait() {
	q.pool.StopWait()
}
