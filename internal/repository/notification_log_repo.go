package repository

import (
	"context"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// NotificationLogRepository persists delivery audit records.
// The pgx implementation is in pg_notification_log_repo.go; memory_notification_log_repo.go
// serves deployments without a database and unit tests.
type NotificationLogRepository interface {
	// Create stores l and fills in its ID.
	Create(ctx context.Context, l *domain.NotificationLog) error
	GetByID(ctx context.Context, id int64) (*domain.NotificationLog, error)
	// List returns one page of records, newest first, plus the total match count.
	List(ctx context.Context, filter domain.LogFilter) ([]*domain.NotificationLog, int, error)
}
