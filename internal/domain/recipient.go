package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// Recipient identifies who receives a notification on one channel.
// The set of implementations is closed: EmailRecipient, SMSRecipient, LogRecipient.
type Recipient interface {
	Channel() Channel
	Identifier() string
	isRecipient()
}

// EmailRecipient is a validated email address.
type EmailRecipient struct {
	address string
}

func NewEmailRecipient(address string) (EmailRecipient, error) {
	if err := validate.Var(address, "required,email"); err != nil {
		return EmailRecipient{}, fmt.Errorf("%w: %q", ErrInvalidEmail, address)
	}
	return EmailRecipient{address: address}, nil
}

func (r EmailRecipient) Channel() Channel   { return ChannelEmail }
func (r EmailRecipient) Identifier() string { return r.address }
func (EmailRecipient) isRecipient()         {}

// SMSRecipient is a phone number in E.164 form.
type SMSRecipient struct {
	phone string
}

func NewSMSRecipient(phone string) (SMSRecipient, error) {
	if !phonePattern.MatchString(phone) {
		return SMSRecipient{}, fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return SMSRecipient{phone: phone}, nil
}

func (r SMSRecipient) Channel() Channel   { return ChannelSMS }
func (r SMSRecipient) Identifier() string { return r.phone }
func (SMSRecipient) isRecipient()         {}

// LogRecipient is the username written to the audit log channel.
type LogRecipient struct {
	username string
}

func NewLogRecipient(username string) (LogRecipient, error) {
	if strings.TrimSpace(username) == "" {
		return LogRecipient{}, ErrInvalidUsername
	}
	return LogRecipient{username: username}, nil
}

func (r LogRecipient) Channel() Channel   { return ChannelLog }
func (r LogRecipient) Identifier() string { return r.username }
func (LogRecipient) isRecipient()         {}

// RecipientFor builds the channel-specific recipient from the fields supplied
// in a request. The field matching the channel is required.
func RecipientFor(ch Channel, dto RecipientDTO) (Recipient, error) {
	switch ch {
	case ChannelEmail:
		if dto.Email == nil {
			return nil, fmt.Errorf("%w: email is required for the email channel", ErrMissingRecipientField)
		}
		r, err := NewEmailRecipient(*dto.Email)
		if err != nil {
			return nil, err
		}
		return r, nil
	case ChannelSMS:
		if dto.PhoneNumber == nil {
			return nil, fmt.Errorf("%w: phone_number is required for the sms channel", ErrMissingRecipientField)
		}
		r, err := NewSMSRecipient(*dto.PhoneNumber)
		if err != nil {
			return nil, err
		}
		return r, nil
	case ChannelLog:
		if dto.Username == nil {
			return nil, fmt.Errorf("%w: username is required for the log channel", ErrMissingRecipientField)
		}
		r, err := NewLogRecipient(*dto.Username)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, ErrInvalidChannel
}
