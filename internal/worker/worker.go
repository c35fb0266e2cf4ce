package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/queue"
)

// minRedeliveryDelay keeps a zero RetryAfter from spinning a hot loop.
const minRedeliveryDelay = 100 * time.Millisecond

// Dispatcher delivers one notification. *dispatch.Handler satisfies it.
type Dispatcher interface {
	Handle(ctx context.Context, n domain.Notification) error
}

// Worker is a single goroutine that pulls items off the queue, hands them to
// the dispatcher and schedules redelivery when the outcome is transient.
type Worker struct {
	id         int
	q          *queue.Queue
	dispatcher Dispatcher
	opts       Options
	logger     *zap.Logger

	onRedelivered   func(domain.Channel, string)
	onUndeliverable func(domain.Channel)
}

// NewWorker constructs a worker. Nil hook functions are no-ops.
func NewWorker(id int, q *queue.Queue, dispatcher Dispatcher, opts Options, logger *zap.Logger, hooks MetricHooks) *Worker {
	w := &Worker{
		id: id, q: q, dispatcher: dispatcher, opts: opts, logger: logger,
		onRedelivered:   hooks.OnRedelivered,
		onUndeliverable: hooks.OnUndeliverable,
	}
	if w.onRedelivered == nil {
		w.onRedelivered = func(domain.Channel, string) {}
	}
	if w.onUndeliverable == nil {
		w.onUndeliverable = func(domain.Channel) {}
	}
	return w
}

// Run blocks until ctx is cancelled, processing one queue item per iteration.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", zap.Int("id", w.id))
	for {
		item, ok := w.q.Dequeue(ctx)
		if !ok {
			w.logger.Info("worker stopping", zap.Int("id", w.id))
			return
		}
		// A dispatch already dequeued runs to completion even during shutdown.
		w.process(context.WithoutCancel(ctx), item)
	}
}

func (w *Worker) process(ctx context.Context, item queue.Item) {
	n := item.Notification
	log := w.logger.With(
		zap.String("notification_id", n.ID()),
		zap.String("channel", string(n.Channel())),
		zap.Int("attempt", item.Attempt),
	)
	if item.CorrelationID != "" {
		log = log.With(zap.String("correlation_id", item.CorrelationID))
	}

	err := w.dispatcher.Handle(ctx, n)
	if err == nil {
		return
	}

	var rateLimited *domain.RateLimitedError
	switch {
	case errors.As(err, &rateLimited):
		delay := max(rateLimited.RetryAfter, minRedeliveryDelay)
		w.redeliver(log, delay, item, "rate_limited")

	case errors.Is(err, domain.ErrAllProvidersFailed):
		w.handleFailure(log, item, err)

	default:
		log.Error("dispatch returned unexpected error, dropping", zap.Error(err))
		w.onUndeliverable(n.Channel())
	}
}

// handleFailure either schedules a retry (if attempts remain) or drops the
// notification as undeliverable.
//
// Retry schedule:
//
//	attempt 0 → backoff[0]  (default 5 s)
//	attempt 1 → backoff[1]  (default 30 s)
//	attempt 2 → backoff[2]  (default 120 s)
//	attempt N ≥ len(backoff) → last backoff entry (clamped)
func (w *Worker) handleFailure(log *zap.Logger, item queue.Item, dispatchErr error) {
	if item.Attempt >= w.opts.MaxRetries || len(w.opts.Backoff) == 0 {
		log.Error("notification undeliverable, retries exhausted",
			zap.Int("max_retries", w.opts.MaxRetries),
			zap.Error(dispatchErr),
		)
		w.onUndeliverable(item.Notification.Channel())
		return
	}

	idx := item.Attempt
	if idx >= len(w.opts.Backoff) {
		idx = len(w.opts.Backoff) - 1
	}

	next := item
	next.Attempt++
	w.redeliver(log, w.opts.Backoff[idx], next, "all_providers_failed")
}

func (w *Worker) redeliver(log *zap.Logger, delay time.Duration, item queue.Item, reason string) {
	if err := w.q.EnqueueAfter(delay, item); err != nil {
		log.Warn("redelivery discarded", zap.String("reason", reason), zap.Error(err))
		return
	}
	w.onRedelivered(item.Notification.Channel(), reason)
	log.Info("redelivery scheduled", zap.String("reason", reason), zap.Duration("delay", delay))
}
