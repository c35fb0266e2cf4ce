package audit

import (
	"context"
	"fmt"

	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/repository"
)

// LogWriter persists each event as a NotificationLog row.
type LogWriter struct {
	repo repository.NotificationLogRepository
}

func NewLogWriter(repo repository.NotificationLogRepository) *LogWriter {
	return &LogWriter{repo: repo}
}

func (w *LogWriter) Name() string { return "notification_log" }

func (w *LogWriter) Write(ctx context.Context, ev domain.DeliveredEvent) error {
	l := &domain.NotificationLog{
		NotificationID:      ev.NotificationID,
		RecipientIdentifier: ev.RecipientIdentifier,
		Channel:             ev.Channel,
		Provider:            ev.Provider,
		SentAt:              ev.SentAt.UTC(),
	}
	if err := w.repo.Create(ctx, l); err != nil {
		return fmt.Errorf("store notification log: %w", err)
	}
	return nil
}
