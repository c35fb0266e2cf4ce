package broker

import "context"

// Publisher sends raw payloads to a message broker subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}
