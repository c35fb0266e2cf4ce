package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/config"
	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/provider"
)

// buildRegistry registers every provider whose settings are present.
// The routing table may name providers that are absent here; the chain
// skips them at resolution time.
func buildRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*provider.Registry, error) {
	reg, err := provider.NewRegistry(
		provider.NewLogProvider(config.ProviderLog, logger, domain.ChannelLog),
		provider.NewLogProvider(config.ProviderSMSLog, logger, domain.ChannelSMS),
	)
	if err != nil {
		return nil, err
	}

	var optional []provider.Provider

	if cfg.SMTP.Enabled() {
		optional = append(optional, provider.NewSMTPProvider(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, cfg.ProviderTimeout,
		))
	}
	if cfg.EmailWebhookURL != "" {
		optional = append(optional, provider.NewWebhookProvider(
			config.ProviderEmailWebhook, domain.ChannelEmail, cfg.EmailWebhookURL, cfg.ProviderTimeout,
		))
	}
	if cfg.SMSWebhookURL != "" {
		optional = append(optional, provider.NewWebhookProvider(
			config.ProviderSMSWebhook, domain.ChannelSMS, cfg.SMSWebhookURL, cfg.ProviderTimeout,
		))
	}
	if cfg.Twilio.Enabled() {
		optional = append(optional, provider.NewTwilioProvider(
			cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.MessagingServiceSID, cfg.Twilio.BaseURL, cfg.ProviderTimeout,
		))
	}
	if cfg.SNS.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		optional = append(optional, provider.NewSNSProviderFromConfig(awsCfg, cfg.SNS.SenderID, cfg.SNS.Endpoint, cfg.ProviderTimeout))
	}

	for _, p := range optional {
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}

	logger.Info("providers registered", zap.Strings("providers", reg.Names()))
	return reg, nil
}
