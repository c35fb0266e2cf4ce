package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// LogProvider "delivers" by writing the notification to the application log.
// It backs the log channel and doubles as a development sink for SMS.
type LogProvider struct {
	name     string
	channels map[domain.Channel]struct{}
	logger   *zap.Logger
}

func NewLogProvider(name string, logger *zap.Logger, channels ...domain.Channel) *LogProvider {
	set := make(map[domain.Channel]struct{}, len(channels))
	for _, ch := range channels {
		set[ch] = struct{}{}
	}
	return &LogProvider{
		name:     name,
		channels: set,
		logger:   logger.With(zap.String("provider", name)),
	}
}

func (p *LogProvider) Name() string { return p.name }

func (p *LogProvider) Supports(ch domain.Channel) bool {
	_, ok := p.channels[ch]
	return ok
}

func (p *LogProvider) Send(_ context.Context, n domain.Notification) error {
	if !p.Supports(n.Channel()) {
		return ErrUnsupportedContent
	}

	fields := []zap.Field{
		zap.String("notification_id", n.ID()),
		zap.String("channel", string(n.Channel())),
		zap.String("recipient", n.Recipient().Identifier()),
	}

	switch c := n.Content().(type) {
	case domain.LogContent:
		p.logger.Info(c.Message(), fields...)
	case domain.SMSContent:
		p.logger.Info("sms message", append(fields, zap.String("message", c.Text()))...)
	case domain.EmailContent:
		p.logger.Info("email message", append(fields, zap.String("subject", c.Subject()))...)
	default:
		return ErrUnsupportedContent
	}
	return nil
}

var _ Provider = (*LogProvider)(nil)
