package queue

import "github.com/notifyhub/notify-dispatch/internal/domain"

// Item carries a validated notification through the queue. Notifications are
// immutable, so the item is the whole unit of work and no lookup is needed.
type Item struct {
	Notification domain.Notification
	// Attempt counts dispatches that ended in AllProvidersFailed.
	// Rate-limited redeliveries do not increment it.
	Attempt       int
	CorrelationID string
}
