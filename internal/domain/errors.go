package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidChannel        = errors.New("invalid channel: must be email, sms, or log")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrInvalidPhone          = errors.New("invalid phone number format, e.g. +11234567890")
	ErrInvalidUsername       = errors.New("username must not be blank")
	ErrInvalidContent        = errors.New("required content field must not be blank")
	ErrInvalidPayload        = errors.New("invalid payload")
	ErrMissingRecipientField = errors.New("missing recipient field")
	ErrChannelMismatch       = errors.New("recipient and content belong to different channels")
	ErrNoNotifications       = errors.New("request must contain at least one notification")
	ErrNoChannelsEnabled     = errors.New("none of the requested channels are enabled")
	ErrQueueFull             = errors.New("queue is at capacity, try again later")
	ErrQueueClosed           = errors.New("queue is closed")

	ErrRateLimited        = errors.New("recipient rate limit exceeded")
	ErrAllProvidersFailed = errors.New("all providers failed")
)

// RateLimitedError is returned when a recipient exceeded its allowed rate.
// It is transient: the same notification may be redelivered after RetryAfter.
type RateLimitedError struct {
	Identifier string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %q, retry after %s", e.Identifier, e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// AllProvidersFailedError reports that every resolved provider failed, or that
// the channel resolved to no providers at all (Attempts == 0).
type AllProvidersFailedError struct {
	Channel    Channel
	Identifier string
	Attempts   int
	Errs       []error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed for channel %q for recipient %q (%d attempted)",
		e.Channel, e.Identifier, e.Attempts)
}

func (e *AllProvidersFailedError) Is(target error) bool { return target == ErrAllProvidersFailed }

func (e *AllProvidersFailedError) Unwrap() []error { return e.Errs }
