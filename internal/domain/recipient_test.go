package domain_test

import (
	"errors"
	"testing"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestNewEmailRecipient(t *testing.T) {
	t.Run("valid address round-trips", func(t *testing.T) {
		r, err := domain.NewEmailRecipient("a@b.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if r.Identifier() != "a@b.com" {
			t.Fatalf("expected identifier a@b.com, got %q", r.Identifier())
		}
		if r.Channel() != domain.ChannelEmail {
			t.Fatalf("expected channel email, got %q", r.Channel())
		}
	})

	for _, bad := range []string{"not-an-email", "", "a@", "@b.com", " a@b.com"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			if _, err := domain.NewEmailRecipient(bad); !errors.Is(err, domain.ErrInvalidEmail) {
				t.Fatalf("expected ErrInvalidEmail, got %v", err)
			}
		})
	}
}

func TestNewSMSRecipient(t *testing.T) {
	r, err := domain.NewSMSRecipient("+15551234567")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.Identifier() != "+15551234567" {
		t.Fatalf("expected identifier to round-trip, got %q", r.Identifier())
	}
	if r.Channel() != domain.ChannelSMS {
		t.Fatalf("expected channel sms, got %q", r.Channel())
	}

	for _, bad := range []string{"15551234567", "+0123456", "+1", "+1234567890123456", "+1555abc4567", ""} {
		if _, err := domain.NewSMSRecipient(bad); !errors.Is(err, domain.ErrInvalidPhone) {
			t.Fatalf("%q: expected ErrInvalidPhone, got %v", bad, err)
		}
	}
}

func TestNewLogRecipient(t *testing.T) {
	r, err := domain.NewLogRecipient("jdoe")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.Identifier() != "jdoe" || r.Channel() != domain.ChannelLog {
		t.Fatalf("unexpected recipient: %q on %q", r.Identifier(), r.Channel())
	}

	if _, err := domain.NewLogRecipient("   "); !errors.Is(err, domain.ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
}

func TestRecipientFor(t *testing.T) {
	dto := domain.RecipientDTO{
		Email:       strPtr("test@example.com"),
		PhoneNumber: strPtr("+15551234567"),
		Username:    strPtr("test"),
	}

	tests := []struct {
		channel    domain.Channel
		identifier string
	}{
		{domain.ChannelEmail, "test@example.com"},
		{domain.ChannelSMS, "+15551234567"},
		{domain.ChannelLog, "test"},
	}
	for _, tc := range tests {
		t.Run(string(tc.channel), func(t *testing.T) {
			r, err := domain.RecipientFor(tc.channel, dto)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Channel() != tc.channel || r.Identifier() != tc.identifier {
				t.Fatalf("got %s:%s, want %s:%s", r.Channel(), r.Identifier(), tc.channel, tc.identifier)
			}
		})
	}

	t.Run("missing field for channel", func(t *testing.T) {
		_, err := domain.RecipientFor(domain.ChannelSMS, domain.RecipientDTO{Email: strPtr("a@b.com")})
		if !errors.Is(err, domain.ErrMissingRecipientField) {
			t.Fatalf("expected ErrMissingRecipientField, got %v", err)
		}
	})

	t.Run("invalid value is reported", func(t *testing.T) {
		_, err := domain.RecipientFor(domain.ChannelEmail, domain.RecipientDTO{Email: strPtr("nope")})
		if !errors.Is(err, domain.ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail, got %v", err)
		}
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := domain.RecipientFor("push", dto)
		if !errors.Is(err, domain.ErrInvalidChannel) {
			t.Fatalf("expected ErrInvalidChannel, got %v", err)
		}
	})
}
