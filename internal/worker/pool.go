package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/queue"
)

// MetricHooks carries the metric callback functions injected by main.
type MetricHooks struct {
	OnRedelivered   func(channel domain.Channel, reason string)
	OnUndeliverable func(channel domain.Channel)
}

// Options control redelivery after a failed dispatch.
type Options struct {
	// MaxRetries bounds redeliveries after AllProvidersFailed.
	MaxRetries int
	// Backoff is indexed by attempt; attempts past the end reuse the last entry.
	Backoff []time.Duration
}

// Pool manages the lifecycle of all workers. Every worker shares one queue
// and one dispatcher.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

func NewPool(
	size int,
	q *queue.Queue,
	dispatcher Dispatcher,
	opts Options,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	if size <= 0 {
		size = 1
	}
	workers := make([]*Worker, size)
	for i := range workers {
		workers[i] = NewWorker(i, q, dispatcher, opts, logger.With(zap.Int("worker_id", i)), hooks)
	}
	return &Pool{workers: workers}
}

// Start launches all workers as goroutines.
// The provided ctx is forwarded to every worker; cancelling it
// triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
// Call this after cancelling the context to ensure in-flight dispatches finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}
