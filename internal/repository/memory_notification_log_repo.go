package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// MemoryNotificationLogRepository is an in-memory NotificationLogRepository.
// It backs the service when DATABASE_URL is unset and doubles as the test fake.
type MemoryNotificationLogRepository struct {
	mu     sync.RWMutex
	logs   []*domain.NotificationLog
	nextID int64

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr error
	ListErr   error
}

func NewMemoryNotificationLogRepository() *MemoryNotificationLogRepository {
	return &MemoryNotificationLogRepository{nextID: 1}
}

func (m *MemoryNotificationLogRepository) Create(_ context.Context, l *domain.NotificationLog) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.nextID
	m.nextID++
	clone := *l
	m.logs = append(m.logs, &clone)
	return nil
}

func (m *MemoryNotificationLogRepository) GetByID(_ context.Context, id int64) (*domain.NotificationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.logs {
		if l.ID == id {
			clone := *l
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MemoryNotificationLogRepository) List(_ context.Context, f domain.LogFilter) ([]*domain.NotificationLog, int, error) {
	if m.ListErr != nil {
		return nil, 0, m.ListErr
	}
	m.mu.RLock()
	matched := make([]*domain.NotificationLog, 0, len(m.logs))
	for _, l := range m.logs {
		if f.Channel != nil && l.Channel != *f.Channel {
			continue
		}
		if f.Recipient != nil && l.RecipientIdentifier != *f.Recipient {
			continue
		}
		clone := *l
		matched = append(matched, &clone)
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].SentAt.Equal(matched[j].SentAt) {
			return matched[i].SentAt.After(matched[j].SentAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start < 0 || start >= total {
		return []*domain.NotificationLog{}, total, nil
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

var _ NotificationLogRepository = (*MemoryNotificationLogRepository)(nil)
