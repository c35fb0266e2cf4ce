package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/notifyhub/notify-dispatch/internal/broker"
	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// SubjectPrefix is prepended to the channel to form the publish subject,
// e.g. notifications.delivered.email.
const SubjectPrefix = "notifications.delivered."

// BrokerSink publishes events as JSON to a message broker.
type BrokerSink struct {
	pub broker.Publisher
}

func NewBrokerSink(pub broker.Publisher) *BrokerSink {
	return &BrokerSink{pub: pub}
}

func (s *BrokerSink) Name() string { return "broker" }

func (s *BrokerSink) Write(ctx context.Context, ev domain.DeliveredEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.pub.Publish(ctx, SubjectPrefix+string(ev.Channel), data)
}
