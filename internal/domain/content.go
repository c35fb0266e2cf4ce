package domain

import (
	"fmt"
	"strings"
)

// Content is the channel-specific body of a notification.
// The set of implementations is closed: EmailContent, SMSContent, LogContent.
type Content interface {
	Channel() Channel
	isContent()
}

// EmailContent carries a subject, a plain-text body and an optional HTML body.
type EmailContent struct {
	subject string
	text    string
	html    string
}

func NewEmailContent(subject, text, html string) (EmailContent, error) {
	if strings.TrimSpace(subject) == "" {
		return EmailContent{}, fmt.Errorf("%w: subject", ErrInvalidContent)
	}
	if strings.TrimSpace(text) == "" {
		return EmailContent{}, fmt.Errorf("%w: text body", ErrInvalidContent)
	}
	return EmailContent{subject: subject, text: text, html: html}, nil
}

func (c EmailContent) Channel() Channel { return ChannelEmail }
func (c EmailContent) Subject() string  { return c.subject }
func (c EmailContent) Text() string     { return c.text }

// HTML returns the HTML body, or "" when only plain text was supplied.
func (c EmailContent) HTML() string { return c.html }
func (EmailContent) isContent()     {}

type SMSContent struct {
	text string
}

func NewSMSContent(text string) (SMSContent, error) {
	if strings.TrimSpace(text) == "" {
		return SMSContent{}, fmt.Errorf("%w: message", ErrInvalidContent)
	}
	return SMSContent{text: text}, nil
}

func (c SMSContent) Channel() Channel { return ChannelSMS }
func (c SMSContent) Text() string     { return c.text }
func (SMSContent) isContent()         {}

type LogContent struct {
	message string
}

func NewLogContent(message string) (LogContent, error) {
	if strings.TrimSpace(message) == "" {
		return LogContent{}, fmt.Errorf("%w: log message", ErrInvalidContent)
	}
	return LogContent{message: message}, nil
}

func (c LogContent) Channel() Channel { return ChannelLog }
func (c LogContent) Message() string  { return c.message }
func (LogContent) isContent()         {}
