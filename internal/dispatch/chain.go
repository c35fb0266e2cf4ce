package dispatch

import (
	"sort"

	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/config"
	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/provider"
)

// Lookup resolves a provider identity to an instance. *provider.Registry satisfies it.
type Lookup interface {
	Lookup(name string) (provider.Provider, bool)
}

// ProviderChain turns the configured provider table into an ordered list of
// candidates for a channel. Table and registry are never mutated, so a chain
// is safe for concurrent use.
type ProviderChain struct {
	table    config.ProviderTable
	registry Lookup
	logger   *zap.Logger
}

func NewProviderChain(table config.ProviderTable, registry Lookup, logger *zap.Logger) *ProviderChain {
	return &ProviderChain{table: table, registry: registry, logger: logger}
}

// Resolve returns the enabled providers for ch, highest priority first.
// Entries with equal priority keep their configured order. Entries whose
// provider is unregistered or does not support ch are skipped. An
// unconfigured channel yields an empty slice.
func (c *ProviderChain) Resolve(ch domain.Channel) []provider.Provider {
	entries := c.table[ch]

	enabled := make([]config.ProviderEntry, 0, len(entries))
	for _, e := range entries {
		if e.Enabled {
			enabled = append(enabled, e)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority > enabled[j].Priority
	})

	out := make([]provider.Provider, 0, len(enabled))
	for _, e := range enabled {
		p, ok := c.registry.Lookup(e.Provider)
		if !ok {
			c.logger.Debug("provider not registered, skipping",
				zap.String("channel", string(ch)),
				zap.String("provider", e.Provider),
			)
			continue
		}
		if !p.Supports(ch) {
			c.logger.Debug("provider does not support channel, skipping",
				zap.String("channel", string(ch)),
				zap.String("provider", e.Provider),
			)
			continue
		}
		out = append(out, p)
	}
	return out
}
