package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification pairs one recipient with one content body of the same channel.
// It is immutable once built; the dispatch core never re-validates it.
type Notification struct {
	id        string
	recipient Recipient
	content   Content
	createdAt time.Time
}

func NewNotification(r Recipient, c Content) (Notification, error) {
	if r == nil || c == nil {
		return Notification{}, ErrInvalidPayload
	}
	if r.Channel() != c.Channel() {
		return Notification{}, ErrChannelMismatch
	}
	return Notification{
		id:        uuid.New().String(),
		recipient: r,
		content:   c,
		createdAt: time.Now().UTC(),
	}, nil
}

func (n Notification) ID() string           { return n.id }
func (n Notification) Recipient() Recipient { return n.recipient }
func (n Notification) Content() Content     { return n.content }
func (n Notification) Channel() Channel     { return n.recipient.Channel() }
func (n Notification) CreatedAt() time.Time { return n.createdAt }

// DeliveredEvent is the audit fact emitted once per successful dispatch.
type DeliveredEvent struct {
	NotificationID      string    `json:"notification_id"`
	RecipientIdentifier string    `json:"recipient_identifier"`
	Channel             Channel   `json:"channel"`
	Provider            string    `json:"provider"`
	SentAt              time.Time `json:"sent_at"`
}

// NotificationLog is the persisted form of a DeliveredEvent.
type NotificationLog struct {
	ID                  int64     `json:"id"`
	NotificationID      string    `json:"notification_id"`
	RecipientIdentifier string    `json:"recipient_identifier"`
	Channel             Channel   `json:"channel"`
	Provider            string    `json:"provider"`
	SentAt              time.Time `json:"sent_at"`
}

// LogFilter holds query parameters for paginated audit log listing.
type LogFilter struct {
	Channel   *Channel
	Recipient *string
	Page      int
	Limit     int
}
