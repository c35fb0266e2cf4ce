package dispatch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/provider"
)

// fakeProvider records every Send call and fails when err is set.
type fakeProvider struct {
	name     string
	channels []domain.Channel
	err      error
	panicVal any

	mu    sync.Mutex
	calls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Supports(ch domain.Channel) bool {
	for _, c := range p.channels {
		if c == ch {
			return true
		}
	}
	return false
}

func (p *fakeProvider) Send(context.Context, domain.Notification) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.panicVal != nil {
		panic(p.panicVal)
	}
	return p.err
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type mapRegistry map[string]provider.Provider

func (m mapRegistry) Lookup(name string) (provider.Provider, bool) {
	p, ok := m[name]
	return p, ok
}

type stubLimiter struct {
	allow      bool
	retryAfter time.Duration
	consumed   []string
}

func (l *stubLimiter) Consume(id string) (bool, time.Duration) {
	l.consumed = append(l.consumed, id)
	if l.allow {
		return true, 0
	}
	return false, l.retryAfter
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []domain.DeliveredEvent
}

func (e *recordingEmitter) Emit(_ context.Context, ev domain.DeliveredEvent) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *recordingEmitter) Events() []domain.DeliveredEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.DeliveredEvent(nil), e.events...)
}

func newEmail(t *testing.T, addr string) domain.Notification {
	t.Helper()
	r, err := domain.NewEmailRecipient(addr)
	if err != nil {
		t.Fatal(err)
	}
	c, err := domain.NewEmailContent("Hello", "body", "")
	if err != nil {
		t.Fatal(err)
	}
	n, err := domain.NewNotification(r, c)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func newSMS(t *testing.T, phone string) domain.Notification {
	t.Helper()
	r, err := domain.NewSMSRecipient(phone)
	if err != nil {
		t.Fatal(err)
	}
	c, err := domain.NewSMSContent("code 1234")
	if err != nil {
		t.Fatal(err)
	}
	n, err := domain.NewNotification(r, c)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func names(ps []provider.Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name()
	}
	return out
}

// stalledSNS never answers; Publish returns only when ctx ends.
type stalledSNS struct{}

func (stalledSNS) Publish(ctx context.Context, _ *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
