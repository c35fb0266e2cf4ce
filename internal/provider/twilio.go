package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// TwilioProvider sends SMS through the Twilio Messages API using a
// Messaging Service SID as the sender.
type TwilioProvider struct {
	accountSID          string
	authToken           string
	messagingServiceSID string
	baseURL             string
	httpClient          *http.Client
}

func NewTwilioProvider(accountSID, authToken, messagingServiceSID, baseURL string, timeout time.Duration) *TwilioProvider {
	return &TwilioProvider{
		accountSID:          accountSID,
		authToken:           authToken,
		messagingServiceSID: messagingServiceSID,
		baseURL:             strings.TrimRight(baseURL, "/"),
		httpClient:          &http.Client{Timeout: timeout},
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) Supports(ch domain.Channel) bool { return ch == domain.ChannelSMS }

func (p *TwilioProvider) Send(ctx context.Context, n domain.Notification) error {
	sms, ok := n.Content().(domain.SMSContent)
	if !ok {
		return fmt.Errorf("twilio: %w: %T", ErrUnsupportedContent, n.Content())
	}

	form := url.Values{}
	form.Set("To", n.Recipient().Identifier())
	form.Set("MessagingServiceSid", p.messagingServiceSID)
	form.Set("Body", sms.Text())

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.baseURL, url.PathEscape(p.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

var _ Provider = (*TwilioProvider)(nil)
