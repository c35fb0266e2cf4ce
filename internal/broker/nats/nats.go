package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/notifyhub/notify-dispatch/internal/broker"
)

const (
	StreamName     = "NOTIFICATIONS"
	StreamSubjects = "notifications.>"
)

// Publisher writes to a JetStream stream that captures every notifications.* subject.
type Publisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// New connects to url and ensures the NOTIFICATIONS stream exists.
func New(ctx context.Context, url string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("notify-dispatch"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{StreamSubjects},
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains pending publishes before closing the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}

var _ broker.Publisher = (*Publisher)(nil)
