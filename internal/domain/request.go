package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// NotifyRequest is the inbound payload: one recipient, one or more channels.
type NotifyRequest struct {
	Recipient     RecipientDTO     `json:"recipient"`
	Notifications []ChannelRequest `json:"notifications"`
}

// RecipientDTO carries every identifier the caller knows about the recipient.
// Only the field matching a requested channel is required.
type RecipientDTO struct {
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Username    *string `json:"username,omitempty"`
}

// ChannelRequest selects a channel and carries its payload. The payload shape
// depends on the channel and is decoded by ContentFor.
type ChannelRequest struct {
	Channel Channel         `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

type EmailPayload struct {
	Subject  string `json:"subject" validate:"required"`
	TextBody string `json:"text_body" validate:"required"`
	HTMLBody string `json:"html_body,omitempty"`
}

type SMSPayload struct {
	Message string `json:"message" validate:"required"`
}

type LogPayload struct {
	LogMessage string `json:"log_message" validate:"required"`
}

// ContentFor decodes raw into the payload type for ch and builds its Content.
func ContentFor(ch Channel, raw json.RawMessage) (Content, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: payload is required for the %s channel", ErrInvalidPayload, ch)
	}

	switch ch {
	case ChannelEmail:
		var p EmailPayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		c, err := NewEmailContent(p.Subject, p.TextBody, p.HTMLBody)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ChannelSMS:
		var p SMSPayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		c, err := NewSMSContent(p.Message)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ChannelLog:
		var p LogPayload
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		c, err := NewLogContent(p.LogMessage)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, ErrInvalidChannel
}

func decodePayload(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %q failed %q", ErrInvalidContent, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
