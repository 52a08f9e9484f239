package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/billingbridge/billingbridge/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Webhook    WebhookConfig    `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

// WebhookConfig configures the outbound domain event bus
type WebhookConfig struct {
	Topic string `validate:"required"`
}

// BillingConfig holds per-provider credentials and tuning knobs
type BillingConfig struct {
	// EnabledProviders lists the providers the registry is built with
	EnabledProviders []types.ProviderType `validate:"required,min=1"`

	Stripe StripeConfig
	Paddle PaddleConfig

	// SelfHealTimeout bounds the blocking customer fetch done inside webhook
	// handling when a local mapping is missing
	SelfHealTimeout time.Duration
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type PaddleConfig struct {
	APIKey        string
	WebhookSecret string
	BaseURL       string
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billingbridge")

	v.SetEnvPrefix("BILLINGBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	v.SetDefault("billing.selfhealtimeout", 5*time.Second)
	v.SetDefault("billing.paddle.baseurl", "https://api.paddle.com")
	v.SetDefault("webhook.topic", "billing_events")

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Billing.Validate()
}

// Validate checks that every enabled provider carries its credentials.
// Missing credentials are a fatal configuration error, not a retryable one.
func (c BillingConfig) Validate() error {
	for _, p := range c.EnabledProviders {
		switch p {
		case types.ProviderStripe:
			if c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "" {
				return fmt.Errorf("stripe enabled but secret_key or webhook_secret missing")
			}
		case types.ProviderPaddle:
			if c.Paddle.APIKey == "" || c.Paddle.WebhookSecret == "" {
				return fmt.Errorf("paddle enabled but api_key or webhook_secret missing")
			}
		default:
			return fmt.Errorf("unknown billing provider %q", p)
		}
	}
	return nil
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

// GetDefaultConfig returns a default configuration for local development
// and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Webhook:    WebhookConfig{Topic: "billing_events"},
		Billing: BillingConfig{
			EnabledProviders: []types.ProviderType{types.ProviderStripe, types.ProviderPaddle},
			SelfHealTimeout:  5 * time.Second,
		},
	}
}
