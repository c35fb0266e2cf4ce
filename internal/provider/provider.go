package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

var (
	// ErrUnsupportedContent is returned by Send when the notification's
	// content variant is not one the provider can deliver.
	ErrUnsupportedContent = errors.New("unsupported content for provider")

	// ErrProviderPanic marks a Send call that panicked and was recovered.
	ErrProviderPanic = errors.New("provider panicked")
)

// Provider abstracts delivery to one external notification service.
// Mocking this interface in tests gives full control over provider behaviour
// without making real network calls.
type Provider interface {
	// Name is the stable identity used in routing config, logs and audit records.
	Name() string
	Supports(ch domain.Channel) bool
	Send(ctx context.Context, n domain.Notification) error
}

// Registry maps provider identities to instances. It is filled at start-up
// and only read afterwards.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p under its Name. Registering the same name twice is an error.
func (r *Registry) Register(p Provider) error {
	name := p.Name()
	if name == "" {
		return errors.New("provider name is empty")
	}
	if _, dup := r.providers[name]; dup {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = p
	return nil
}

func (r *Registry) Lookup(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered identities in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
