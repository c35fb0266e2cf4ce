package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/notifyhub/notify-dispatch/internal/audit"
	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/repository"
)

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.subject, p.data = subject, data
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func event() domain.DeliveredEvent {
	return domain.DeliveredEvent{
		NotificationID:      "7d1c0e3e-0d5e-4b8a-9a57-2f0c9f3f4b11",
		RecipientIdentifier: "a@b.com",
		Channel:             domain.ChannelEmail,
		Provider:            "smtp",
		SentAt:              time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEmitter_WritesToEverySink(t *testing.T) {
	repo := repository.NewMemoryNotificationLogRepository()
	pub := &fakePublisher{}
	em := audit.NewEmitter(zap.NewNop(), audit.NewLogWriter(repo), audit.NewBrokerSink(pub))

	em.Emit(context.Background(), event())

	stored, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if stored.RecipientIdentifier != "a@b.com" || stored.Provider != "smtp" || stored.Channel != domain.ChannelEmail {
		t.Fatalf("unexpected stored log %+v", stored)
	}

	if pub.subject != "notifications.delivered.email" {
		t.Fatalf("subject = %q", pub.subject)
	}
	var published domain.DeliveredEvent
	if err := json.Unmarshal(pub.data, &published); err != nil {
		t.Fatal(err)
	}
	if published.NotificationID != event().NotificationID {
		t.Fatalf("unexpected published event %+v", published)
	}
}

func TestEmitter_SinkFailureIsLoggedAndOthersStillRun(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	repo := repository.NewMemoryNotificationLogRepository()
	repo.CreateErr = errors.New("connection reset")
	pub := &fakePublisher{}

	em := audit.NewEmitter(zap.New(core), audit.NewLogWriter(repo), audit.NewBrokerSink(pub))
	em.Emit(context.Background(), event())

	if pub.subject == "" {
		t.Fatal("broker sink should still run after the log writer failed")
	}
	entries := logs.FilterMessage("audit sink failed").All()
	if len(entries) != 1 || entries[0].ContextMap()["sink"] != "notification_log" {
		t.Fatalf("expected one logged sink failure, got %+v", entries)
	}
}
