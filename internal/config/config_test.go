package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/notifyhub/notify-dispatch/internal/config"
	"github.com/notifyhub/notify-dispatch/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPPort == "" {
		t.Fatal("expected default HTTP port")
	}
	if len(cfg.RetryBackoff) != 3 {
		t.Fatalf("expected 3 backoff steps, got %d", len(cfg.RetryBackoff))
	}
	if cfg.LimiterPruneInterval != 5*time.Minute || cfg.QueueSampleInterval != 5*time.Second {
		t.Errorf("maintenance intervals = %s, %s", cfg.LimiterPruneInterval, cfg.QueueSampleInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WORKERS", "3")
	t.Setenv("RATE_LIMIT", "7")
	t.Setenv("RATE_LIMIT_INTERVAL", "30s")
	t.Setenv("SNS_ENABLED", "true")
	t.Setenv("QUEUE_SIZE", "not-a-number")

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.RateLimit != 7 || cfg.RateLimitInterval != 30*time.Second {
		t.Errorf("rate limit = %d per %s", cfg.RateLimit, cfg.RateLimitInterval)
	}
	if !cfg.SNS.Enabled {
		t.Error("expected SNS enabled")
	}
	if cfg.QueueSize != 5000 {
		t.Errorf("malformed QUEUE_SIZE should fall back to default, got %d", cfg.QueueSize)
	}
}

func TestProviderCredentialsGate(t *testing.T) {
	if (config.SMTPConfig{Port: "587"}).Enabled() {
		t.Error("SMTP without host must not be enabled")
	}
	if (config.TwilioConfig{AccountSID: "AC1", AuthToken: "t"}).Enabled() {
		t.Error("Twilio without messaging service must not be enabled")
	}
}

func TestParseRouting(t *testing.T) {
	doc := []byte(`
channels:
  email: true
  sms: false
providers:
  email:
    - provider: smtp
      enabled: true
      priority: 5
    - provider: email_webhook
      enabled: false
      priority: 9
`)
	r, err := config.ParseRouting(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !r.ChannelEnabled(domain.ChannelEmail) || r.ChannelEnabled(domain.ChannelSMS) {
		t.Fatalf("unexpected channel flags: %+v", r.Channels)
	}
	if r.ChannelEnabled(domain.ChannelLog) {
		t.Error("channel omitted from the file should be disabled")
	}

	entries := r.Providers[domain.ChannelEmail]
	if len(entries) != 2 {
		t.Fatalf("expected 2 email entries, got %d", len(entries))
	}
	if entries[1].Provider != config.ProviderEmailWebhook || entries[1].Enabled || entries[1].Priority != 9 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if _, ok := r.Providers[domain.ChannelSMS]; ok {
		t.Error("sms has no entries in the file")
	}
}

func TestParseRouting_OmittedSectionsUseDefaults(t *testing.T) {
	r, err := config.ParseRouting([]byte("providers:\n  log:\n    - provider: log\n      enabled: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	for _, ch := range domain.Channels() {
		if !r.ChannelEnabled(ch) {
			t.Errorf("default channels should enable %s", ch)
		}
	}
}

func TestParseRouting_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown channel":  "providers:\n  fax:\n    - provider: x\n",
		"missing provider": "providers:\n  email:\n    - enabled: true\n",
		"bad yaml":         "providers: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := config.ParseRouting([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	_, err := config.ParseRouting([]byte("channels:\n  pigeon: true\n"))
	if !errors.Is(err, domain.ErrInvalidChannel) {
		t.Fatalf("expected ErrInvalidChannel, got %v", err)
	}
}

func TestLoadRouting_MissingFileFallsBack(t *testing.T) {
	r, err := config.LoadRouting(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Providers[domain.ChannelSMS]) == 0 {
		t.Fatal("expected default sms providers")
	}
}

func TestLoadRouting_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	if err := os.WriteFile(path, []byte("providers:\n  sms:\n    - provider: sms_log\n      enabled: true\n      priority: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := config.LoadRouting(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Providers[domain.ChannelSMS]; len(got) != 1 || got[0].Provider != config.ProviderSMSLog {
		t.Fatalf("unexpected sms entries: %+v", got)
	}
}
