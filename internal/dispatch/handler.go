package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/provider"
)

// Limiter is the per-recipient throughput gate consulted before any delivery.
type Limiter interface {
	Consume(identifier string) (ok bool, retryAfter time.Duration)
}

// Emitter receives exactly one event per successful delivery.
type Emitter interface {
	Emit(ctx context.Context, ev domain.DeliveredEvent)
}

// Resolver yields the ordered candidates for a channel. *ProviderChain satisfies it.
type Resolver interface {
	Resolve(ch domain.Channel) []provider.Provider
}

// Hooks are optional metric callbacks. Nil fields are skipped.
type Hooks struct {
	OnDelivered       func(ch domain.Channel, providerName string, latency time.Duration)
	OnProviderFailure func(ch domain.Channel, providerName string)
	OnRateLimited     func(ch domain.Channel)
}

// Handler dispatches one notification: rate limit first, then failover
// across the resolved providers until one accepts it.
type Handler struct {
	limiter Limiter
	chain   Resolver
	emitter Emitter
	hooks   Hooks
	logger  *zap.Logger
	now     func() time.Time
}

func NewHandler(limiter Limiter, chain Resolver, emitter Emitter, hooks Hooks, logger *zap.Logger) *Handler {
	return &Handler{
		limiter: limiter,
		chain:   chain,
		emitter: emitter,
		hooks:   hooks,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle returns nil once a provider accepted n, *domain.RateLimitedError if
// the recipient is over its limit (no provider is called), or
// *domain.AllProvidersFailedError when every candidate failed or none exist.
//
// ctx is handed to providers for request scoping; cancellation does not
// stop the failover loop early.
func (h *Handler) Handle(ctx context.Context, n domain.Notification) error {
	start := h.now()
	recipient := n.Recipient()
	identifier := recipient.Identifier()
	ch := recipient.Channel()

	log := h.logger.With(
		zap.String("notification_id", n.ID()),
		zap.String("channel", string(ch)),
		zap.String("recipient", identifier),
	)

	if ok, retryAfter := h.limiter.Consume(identifier); !ok {
		log.Warn("rate limit exceeded", zap.Duration("retry_after", retryAfter))
		if h.hooks.OnRateLimited != nil {
			h.hooks.OnRateLimited(ch)
		}
		return &domain.RateLimitedError{Identifier: identifier, RetryAfter: retryAfter}
	}

	log.Info("dispatching notification")

	candidates := h.chain.Resolve(ch)
	var errs []error
	for _, p := range candidates {
		name := p.Name()

		if err := safeSend(ctx, p, n); err != nil {
			log.Error("provider failed", zap.String("provider", name), zap.Error(err))
			if h.hooks.OnProviderFailure != nil {
				h.hooks.OnProviderFailure(ch, name)
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		sentAt := h.now()
		h.emitter.Emit(ctx, domain.DeliveredEvent{
			NotificationID:      n.ID(),
			RecipientIdentifier: identifier,
			Channel:             ch,
			Provider:            name,
			SentAt:              sentAt,
		})
		if h.hooks.OnDelivered != nil {
			h.hooks.OnDelivered(ch, name, sentAt.Sub(start))
		}
		log.Info("notification delivered", zap.String("provider", name), zap.Int("attempts", len(errs)+1))
		return nil
	}

	failed := &domain.AllProvidersFailedError{
		Channel:    ch,
		Identifier: identifier,
		Attempts:   len(candidates),
		Errs:       errs,
	}
	log.Error("all providers failed", zap.Int("attempts", len(candidates)))
	return failed
}

// safeSend converts a panic inside a provider into an ordinary failure so the
// loop can move on to the next candidate.
func safeSend(ctx context.Context, p provider.Provider, n domain.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", provider.ErrProviderPanic, r)
		}
	}()
	return p.Send(ctx, n)
}
