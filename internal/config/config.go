package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default. Without DATABASE_URL the audit log is
// kept in memory.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32
	// MigrationsDir holds golang-migrate SQL files, applied at start-up.
	MigrationsDir string

	// Queue and workers
	Workers    int
	QueueSize  int
	MaxRetries int

	// Retry backoff durations after AllProvidersFailed: index 0 = first retry delay, etc.
	RetryBackoff []time.Duration

	// Per-recipient rate limiting: RateLimit dispatches per RateLimitInterval.
	RateLimit         int
	RateLimitInterval time.Duration

	// Periodic jobs
	LimiterPruneInterval time.Duration
	QueueSampleInterval  time.Duration

	// Providers
	ProviderTimeout time.Duration
	SMTP            SMTPConfig
	Twilio          TwilioConfig
	EmailWebhookURL string
	SMSWebhookURL   string
	SNS             SNSConfig

	// Audit fan-out
	NATSURL string

	// Routing file (see routing.go)
	ProvidersConfigPath string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled reports whether enough SMTP settings exist to register the provider.
func (c SMTPConfig) Enabled() bool { return c.Host != "" && c.Port != "" }

// SNSConfig enables SMS through AWS SNS. Credentials and region come from the
// standard AWS environment (AWS_REGION, AWS_ACCESS_KEY_ID, shared config).
type SNSConfig struct {
	Enabled  bool
	SenderID string
	// Endpoint overrides the SNS endpoint, e.g. a LocalStack URL.
	Endpoint string
}

type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	BaseURL             string
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.MessagingServiceSID != ""
}

func Load() (*Config, error) {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBMaxConns:    int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:    int32(getInt("DB_MIN_CONNS", 5)),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),

		Workers:    getInt("WORKERS", 10),
		QueueSize:  getInt("QUEUE_SIZE", 5000),
		MaxRetries: getInt("MAX_RETRIES", 3),

		RetryBackoff: []time.Duration{
			getDuration("RETRY_BACKOFF_1", 5*time.Second),
			getDuration("RETRY_BACKOFF_2", 30*time.Second),
			getDuration("RETRY_BACKOFF_3", 120*time.Second),
		},

		RateLimit:         getInt("RATE_LIMIT", 5),
		RateLimitInterval: getDuration("RATE_LIMIT_INTERVAL", time.Minute),

		LimiterPruneInterval: getDuration("LIMITER_PRUNE_INTERVAL", 5*time.Minute),
		QueueSampleInterval:  getDuration("QUEUE_SAMPLE_INTERVAL", 5*time.Second),

		ProviderTimeout: getDuration("PROVIDER_TIMEOUT", 10*time.Second),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     getEnv("SMTP_FROM", "noreply@example.com"),
		},
		Twilio: TwilioConfig{
			AccountSID:          os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:           os.Getenv("TWILIO_AUTH_TOKEN"),
			MessagingServiceSID: os.Getenv("TWILIO_MESSAGING_SERVICE_SID"),
			BaseURL:             getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		},
		EmailWebhookURL: os.Getenv("EMAIL_WEBHOOK_URL"),
		SMSWebhookURL:   os.Getenv("SMS_WEBHOOK_URL"),
		SNS: SNSConfig{
			Enabled:  getBool("SNS_ENABLED", false),
			SenderID: os.Getenv("SNS_SENDER_ID"),
			Endpoint: os.Getenv("SNS_ENDPOINT"),
		},

		NATSURL: os.Getenv("NATS_URL"),

		ProvidersConfigPath: getEnv("PROVIDERS_CONFIG", "config/providers.yaml"),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
