package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/queue"
	"github.com/notifyhub/notify-dispatch/internal/repository"
)

const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// Queued identifies one notification placed on the queue.
type Queued struct {
	ID      string         `json:"id"`
	Channel domain.Channel `json:"channel"`
}

// SubmitResult lists what was queued and which channels were turned away
// because the queue was full.
type SubmitResult struct {
	Queued   []Queued         `json:"queued"`
	Rejected []domain.Channel `json:"rejected,omitempty"`
}

// NotificationService coordinates the factory, queue and audit log.
// HTTP handlers depend on this service, not on the queue or repository.
type NotificationService struct {
	factory  *Factory
	q        *queue.Queue
	logs     repository.NotificationLogRepository
	onQueued func(domain.Channel)
	logger   *zap.Logger
}

func NewNotificationService(
	factory *Factory,
	q *queue.Queue,
	logs repository.NotificationLogRepository,
	onQueued func(domain.Channel),
	logger *zap.Logger,
) *NotificationService {
	if onQueued == nil {
		onQueued = func(domain.Channel) {}
	}
	return &NotificationService{factory: factory, q: q, logs: logs, onQueued: onQueued, logger: logger}
}

// Submit validates the request and enqueues each channel independently.
// It fails with ErrQueueFull only when nothing could be queued.
func (s *NotificationService) Submit(ctx context.Context, req domain.NotifyRequest, correlationID string) (*SubmitResult, error) {
	notifications, err := s.factory.Build(req)
	if err != nil {
		return nil, err
	}

	res := &SubmitResult{Queued: make([]Queued, 0, len(notifications))}
	for _, n := range notifications {
		log := s.logger.With(
			zap.String("notification_id", n.ID()),
			zap.String("channel", string(n.Channel())),
			zap.String("correlation_id", correlationID),
		)

		if err := s.q.Enqueue(queue.Item{Notification: n, CorrelationID: correlationID}); err != nil {
			log.Warn("could not enqueue notification", zap.Error(err))
			res.Rejected = append(res.Rejected, n.Channel())
			continue
		}

		s.onQueued(n.Channel())
		res.Queued = append(res.Queued, Queued{ID: n.ID(), Channel: n.Channel()})
		log.Info("notification queued")
	}

	if len(res.Queued) == 0 {
		return nil, domain.ErrQueueFull
	}
	return res, nil
}

func (s *NotificationService) GetLog(ctx context.Context, id int64) (*domain.NotificationLog, error) {
	return s.logs.GetByID(ctx, id)
}

// ListLogs returns one page of delivery records. Page and limit are
// normalised: page starts at 1, limit defaults to DefaultPageSize and is
// capped at MaxPageSize.
func (s *NotificationService) ListLogs(ctx context.Context, f domain.LogFilter) ([]*domain.NotificationLog, int, error) {
	if f.Channel != nil && !f.Channel.IsValid() {
		return nil, 0, domain.ErrInvalidChannel
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	logs, total, err := s.logs.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list notification logs: %w", err)
	}
	return logs, total, nil
}

// QueueDepths reports the ready and deferred queue sizes.
func (s *NotificationService) QueueDepths() (ready, deferred int) {
	return s.q.Depths()
}
