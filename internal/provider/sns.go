package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

// SNSPublishAPI is the subset of the SNS client used here; *sns.Client satisfies it.
type SNSPublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSProvider sends transactional SMS directly to a phone number via AWS SNS.
// Each Publish is bounded by timeout when it is positive.
type SNSProvider struct {
	client   SNSPublishAPI
	senderID string
	timeout  time.Duration
}

func NewSNSProvider(client SNSPublishAPI, senderID string, timeout time.Duration) *SNSProvider {
	return &SNSProvider{client: client, senderID: senderID, timeout: timeout}
}

// NewSNSProviderFromConfig builds the SNS client from a loaded AWS config.
// A non-empty endpoint replaces the resolved SNS endpoint (LocalStack).
func NewSNSProviderFromConfig(cfg aws.Config, senderID, endpoint string, timeout time.Duration) *SNSProvider {
	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewSNSProvider(client, senderID, timeout)
}

func (p *SNSProvider) Name() string { return "sns" }

func (p *SNSProvider) Supports(ch domain.Channel) bool { return ch == domain.ChannelSMS }

func (p *SNSProvider) Send(ctx context.Context, n domain.Notification) error {
	sms, ok := n.Content().(domain.SMSContent)
	if !ok {
		return fmt.Errorf("sns: %w: %T", ErrUnsupportedContent, n.Content())
	}

	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if p.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(p.senderID),
		}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	_, err := p.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(n.Recipient().Identifier()),
		Message:           aws.String(sms.Text()),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

var _ Provider = (*SNSProvider)(nil)
