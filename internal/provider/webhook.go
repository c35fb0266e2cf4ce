package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// WebhookRequest is the JSON body posted to the webhook endpoint.
type WebhookRequest struct {
	ID      string `json:"id"`
	To      string `json:"to"`
	Channel string `json:"channel"`
	Subject string `json:"subject,omitempty"`
	Content string `json:"content"`
	HTML    string `json:"html,omitempty"`
}

// WebhookProvider delivers one channel's notifications by POSTing JSON to a URL.
// The URL is injected from config so tests can point to a local mock.
type WebhookProvider struct {
	name       string
	channel    domain.Channel
	url        string
	httpClient *http.Client
}

func NewWebhookProvider(name string, ch domain.Channel, url string, timeout time.Duration) *WebhookProvider {
	return &WebhookProvider{
		name:    name,
		channel: ch,
		url:     url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *WebhookProvider) Name() string { return p.name }

func (p *WebhookProvider) Supports(ch domain.Channel) bool { return ch == p.channel }

// Send posts the notification and treats any 2xx response as accepted.
func (p *WebhookProvider) Send(ctx context.Context, n domain.Notification) error {
	req := WebhookRequest{
		ID:      n.ID(),
		To:      n.Recipient().Identifier(),
		Channel: string(n.Channel()),
	}

	switch c := n.Content().(type) {
	case domain.EmailContent:
		req.Subject = c.Subject()
		req.Content = c.Text()
		req.HTML = c.HTML()
	case domain.SMSContent:
		req.Content = c.Text()
	case domain.LogContent:
		req.Content = c.Message()
	default:
		return fmt.Errorf("%s: %w: %T", p.name, ErrUnsupportedContent, c)
	}
	if n.Channel() != p.channel {
		return fmt.Errorf("%s: %w: channel %s", p.name, ErrUnsupportedContent, n.Channel())
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected webhook status: %d", resp.StatusCode)
	}
	return nil
}

// compile-time check that WebhookProvider implements Provider
var _ Provider = (*WebhookProvider)(nil)
