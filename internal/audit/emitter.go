package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// Sink records a DeliveredEvent somewhere durable or observable.
type Sink interface {
	Name() string
	Write(ctx context.Context, ev domain.DeliveredEvent) error
}

// Emitter fans each DeliveredEvent out to every sink in order. A failing
// sink is logged and skipped; it never turns a delivery into a failure.
type Emitter struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewEmitter(logger *zap.Logger, sinks ...Sink) *Emitter {
	return &Emitter{sinks: sinks, logger: logger}
}

func (e *Emitter) Emit(ctx context.Context, ev domain.DeliveredEvent) {
	for _, s := range e.sinks {
		if err := s.Write(ctx, ev); err != nil {
			e.logger.Error("audit sink failed",
				zap.String("sink", s.Name()),
				zap.String("notification_id", ev.NotificationID),
				zap.String("channel", string(ev.Channel)),
				zap.String("provider", ev.Provider),
				zap.Error(err),
			)
		}
	}
}
