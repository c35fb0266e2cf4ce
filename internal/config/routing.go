package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// Provider identities used as keys in the routing table and the provider registry.
const (
	ProviderSMTP         = "smtp"
	ProviderEmailWebhook = "email_webhook"
	ProviderTwilio       = "twilio"
	ProviderSNS          = "sns"
	ProviderSMSWebhook   = "sms_webhook"
	ProviderSMSLog       = "sms_log"
	ProviderLog          = "log"
)

// ProviderEntry is one configured candidate for a channel.
type ProviderEntry struct {
	Provider string `yaml:"provider"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
}

// ProviderTable maps a channel to its configured providers in file order.
type ProviderTable map[domain.Channel][]ProviderEntry

// Routing is loaded once at start-up and treated as read-only afterwards.
type Routing struct {
	// Channels switches whole channels on or off for incoming requests.
	Channels  map[domain.Channel]bool `yaml:"channels"`
	Providers ProviderTable           `yaml:"providers"`
}

// ChannelEnabled reports whether requests for ch should be accepted.
func (r *Routing) ChannelEnabled(ch domain.Channel) bool {
	return r.Channels[ch]
}

// DefaultRouting returns the routing used when no file is present.
// Entries whose provider is not registered at start-up are skipped by the chain.
func DefaultRouting() *Routing {
	return &Routing{
		Channels: map[domain.Channel]bool{
			domain.ChannelEmail: true,
			domain.ChannelSMS:   true,
			domain.ChannelLog:   true,
		},
		Providers: ProviderTable{
			domain.ChannelEmail: {
				{Provider: ProviderSMTP, Enabled: true, Priority: 10},
				{Provider: ProviderEmailWebhook, Enabled: true, Priority: 5},
			},
			domain.ChannelSMS: {
				{Provider: ProviderTwilio, Enabled: true, Priority: 10},
				{Provider: ProviderSNS, Enabled: true, Priority: 8},
				{Provider: ProviderSMSWebhook, Enabled: true, Priority: 5},
				{Provider: ProviderSMSLog, Enabled: true, Priority: 1},
			},
			domain.ChannelLog: {
				{Provider: ProviderLog, Enabled: true, Priority: 1},
			},
		},
	}
}

// LoadRouting reads the YAML routing file at path. A missing file yields
// DefaultRouting; a present but malformed file is an error.
func LoadRouting(path string) (*Routing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRouting(), nil
		}
		return nil, fmt.Errorf("read routing file %s: %w", path, err)
	}

	return ParseRouting(data)
}

// ParseRouting decodes a routing document. Omitted sections fall back to the
// defaults, so a file may carry only a providers table.
func ParseRouting(data []byte) (*Routing, error) {
	var r Routing
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse routing: %w", err)
	}

	defaults := DefaultRouting()
	if r.Channels == nil {
		r.Channels = defaults.Channels
	}
	if r.Providers == nil {
		r.Providers = defaults.Providers
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid routing: %w", err)
	}
	return &r, nil
}

func (r *Routing) Validate() error {
	for ch := range r.Channels {
		if !ch.IsValid() {
			return fmt.Errorf("channels: %w: %q", domain.ErrInvalidChannel, ch)
		}
	}
	for ch, entries := range r.Providers {
		if !ch.IsValid() {
			return fmt.Errorf("providers: %w: %q", domain.ErrInvalidChannel, ch)
		}
		for i, e := range entries {
			if e.Provider == "" {
				return fmt.Errorf("providers.%s[%d]: provider is required", ch, i)
			}
		}
	}
	return nil
}
