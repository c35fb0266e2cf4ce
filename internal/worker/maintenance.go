package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Ticker runs fn every interval until ctx is cancelled. It carries the
// periodic housekeeping jobs: pruning idle rate-limit buckets and sampling
// queue depth for the gauges.
type Ticker struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	logger   *zap.Logger
}

func NewTicker(name string, interval time.Duration, fn func(ctx context.Context), logger *zap.Logger) *Ticker {
	return &Ticker{name: name, interval: interval, fn: fn, logger: logger.With(zap.String("job", name))}
}

// Run ticks every interval. Stops cleanly when ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	if t.interval <= 0 {
		t.logger.Warn("periodic job disabled", zap.Duration("interval", t.interval))
		return
	}
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("periodic job started", zap.Duration("interval", t.interval))

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("periodic job stopping")
			return
		case <-ticker.C:
			t.fn(ctx)
		}
	}
}
