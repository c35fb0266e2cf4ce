package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

type pgNotificationLogRepository struct {
	pool *pgxpool.Pool
}

// NewPgNotificationLogRepository returns a NotificationLogRepository backed by PostgreSQL.
func NewPgNotificationLogRepository(pool *pgxpool.Pool) NotificationLogRepository {
	return &pgNotificationLogRepository{pool: pool}
}

const selectLogColumns = `
		SELECT id, notification_id, recipient_identifier, channel, provider, sent_at
		FROM notification_logs`

func (r *pgNotificationLogRepository) Create(ctx context.Context, l *domain.NotificationLog) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notification_logs
			(notification_id, recipient_identifier, channel, provider, sent_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		l.NotificationID, l.RecipientIdentifier, l.Channel, l.Provider, l.SentAt,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

func (r *pgNotificationLogRepository) GetByID(ctx context.Context, id int64) (*domain.NotificationLog, error) {
	row := r.pool.QueryRow(ctx, selectLogColumns+` WHERE id = $1`, id)

	l, err := scanLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification log: %w", err)
	}
	return l, nil
}

func (r *pgNotificationLogRepository) List(ctx context.Context, f domain.LogFilter) ([]*domain.NotificationLog, int, error) {
	where, args := buildLogWhere(f)
	offset := (f.Page - 1) * f.Limit

	// Count total matching rows for pagination metadata.
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM notification_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notification logs: %w", err)
	}

	args = append(args, f.Limit, offset)
	query := fmt.Sprintf(`%s%s
		ORDER BY sent_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, selectLogColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notification logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*domain.NotificationLog, 0, f.Limit)
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

// ---- helpers ----

func scanLog(row pgx.Row) (*domain.NotificationLog, error) {
	var l domain.NotificationLog
	err := row.Scan(&l.ID, &l.NotificationID, &l.RecipientIdentifier, &l.Channel, &l.Provider, &l.SentAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// buildLogWhere builds a parameterised WHERE clause from a LogFilter.
func buildLogWhere(f domain.LogFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, val any) {
		args = append(args, val)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if f.Channel != nil {
		add("channel = $%d", *f.Channel)
	}
	if f.Recipient != nil {
		add("recipient_identifier = $%d", *f.Recipient)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
