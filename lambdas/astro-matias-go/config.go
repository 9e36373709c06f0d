package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultWebhookURL      = "https://uprit-senati.app.n8n.cloud/webhook/matias_cientifico"
	defaultWebhookTimeout  = 10 * time.Second
	defaultDeadlineReserve = 1 * time.Second
)

// Config holds the skill configuration. Values come from environment variables.
type Config struct {
	WebhookURL      string        `mapstructure:"WEBHOOK_URL"`
	WebhookTimeout  time.Duration `mapstructure:"WEBHOOK_TIMEOUT"`
	DeadlineReserve time.Duration `mapstructure:"WEBHOOK_DEADLINE_RESERVE"`
	// WebhookSecretARN optionally points at a Secrets Manager secret that overrides
	// WebhookURL and supplies a bearer token.
	WebhookSecretARN string `mapstructure:"WEBHOOK_SECRET_ARN"`
	// WebhookToken is only populated from the secret.
	WebhookToken string `mapstructure:"-"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	// DebugLogging forces LogLevel to debug.
	DebugLogging bool `mapstructure:"DEBUG_LOGGING"`
}

// LoadConfig reads the configuration from the environment, applying defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("WEBHOOK_URL", defaultWebhookURL)
	v.SetDefault("WEBHOOK_TIMEOUT", defaultWebhookTimeout)
	v.SetDefault("WEBHOOK_DEADLINE_RESERVE", defaultDeadlineReserve)
	v.SetDefault("WEBHOOK_SECRET_ARN", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEBUG_LOGGING", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.LogLevel = resolveLogLevel(cfg.LogLevel, cfg.DebugLogging)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration can be used to call the webhook.
func (c *Config) Validate() error {
	if err := ValidateWebhookURL(c.WebhookURL); err != nil {
		return fmt.Errorf("invalid WEBHOOK_URL: %w", err)
	}
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %v", c.WebhookTimeout)
	}
	if c.DeadlineReserve < 0 {
		return fmt.Errorf("WEBHOOK_DEADLINE_RESERVE cannot be negative, got %v", c.DeadlineReserve)
	}
	return nil
}
