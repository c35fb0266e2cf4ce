package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// ChannelGate reports which channels accept new requests. *config.Routing satisfies it.
type ChannelGate interface {
	ChannelEnabled(ch domain.Channel) bool
}

// Factory turns an inbound request into one validated Notification per
// requested channel.
type Factory struct {
	gate   ChannelGate
	logger *zap.Logger
}

func NewFactory(gate ChannelGate, logger *zap.Logger) *Factory {
	return &Factory{gate: gate, logger: logger}
}

// Build validates every entry before returning, so a single bad entry rejects
// the whole request. Entries for disabled channels are skipped; if that leaves
// nothing, ErrNoChannelsEnabled is returned.
func (f *Factory) Build(req domain.NotifyRequest) ([]domain.Notification, error) {
	if len(req.Notifications) == 0 {
		return nil, domain.ErrNoNotifications
	}

	out := make([]domain.Notification, 0, len(req.Notifications))
	for i, cr := range req.Notifications {
		if !cr.Channel.IsValid() {
			return nil, fmt.Errorf("notifications[%d]: %w", i, domain.ErrInvalidChannel)
		}
		if !f.gate.ChannelEnabled(cr.Channel) {
			f.logger.Debug("channel disabled, skipping", zap.String("channel", string(cr.Channel)))
			continue
		}

		r, err := domain.RecipientFor(cr.Channel, req.Recipient)
		if err != nil {
			return nil, fmt.Errorf("notifications[%d]: %w", i, err)
		}
		c, err := domain.ContentFor(cr.Channel, cr.Payload)
		if err != nil {
			return nil, fmt.Errorf("notifications[%d]: %w", i, err)
		}
		n, err := domain.NewNotification(r, c)
		if err != nil {
			return nil, fmt.Errorf("notifications[%d]: %w", i, err)
		}
		out = append(out, n)
	}

	if len(out) == 0 {
		return nil, domain.ErrNoChannelsEnabled
	}
	return out, nil
}
