package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

const (
	AuthFlowPrompt = "prompt"
	AuthFlowInline = "inline"
	AuthFlowBoth   = "both"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SessionTimeoutMinutes         int    `env:"SESSION_TIMEOUT_MINUTES" envDefault:"30"`
	SessionStore                  string `env:"SESSION_STORE" envDefault:"memory"`
	RedisURL                      string `env:"REDIS_URL"`
	SessionEncryptionKey          string `env:"SESSION_ENCRYPTION_KEY"`
	SessionCleanupIntervalSeconds int    `env:"SESSION_CLEANUP_INTERVAL_SECONDS" envDefault:"300"`

	ChatbotSharedSecret string `env:"CHATBOT_SHARED_SECRET"`
	PhonePrefixLength   int    `env:"PHONE_PREFIX_LENGTH" envDefault:"2"`
	AuthFlow            string `env:"AUTH_FLOW" envDefault:"prompt"`

	DatabaseURL    string `env:"DATABASE_URL,required"`
	TrackingAPIURL string `env:"TRACKING_API_URL,required"`
	TrackingAPIKey string `env:"TRACKING_API_KEY"`

	WhatsAppAPIURL        string `env:"WHATSAPP_API_URL" envDefault:"https://graph.facebook.com/v18.0"`
	WhatsAppPhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppToken         string `env:"WHATSAPP_TOKEN"`

	GatewayTimeoutSeconds  int `env:"GATEWAY_TIMEOUT_SECONDS" envDefault:"15"`
	OutboundTimeoutSeconds int `env:"OUTBOUND_TIMEOUT_SECONDS" envDefault:"30"`

	InboundRateLimitPerMin int    `env:"INBOUND_RATE_LIMIT_PER_MIN" envDefault:"30"`
	InboundAPIToken        string `env:"INBOUND_API_TOKEN"`
}

func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.SessionCleanupIntervalSeconds) * time.Second
}

func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.GatewayTimeoutSeconds) * time.Second
}

func (c *Config) OutboundTimeout() time.Duration {
	return time.Duration(c.OutboundTimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.SessionTimeoutMinutes <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_MINUTES must be positive")
	}
	if c.PhonePrefixLength < 0 {
		return fmt.Errorf("PHONE_PREFIX_LENGTH must not be negative")
	}

	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q", SessionStoreMemory, SessionStoreRedis)
	}

	switch c.AuthFlow {
	case AuthFlowPrompt, AuthFlowInline, AuthFlowBoth:
	default:
		return fmt.Errorf("AUTH_FLOW must be one of %s", strings.Join([]string{AuthFlowPrompt, AuthFlowInline, AuthFlowBoth}, ", "))
	}

	if c.SessionEncryptionKey != "" && len(c.SessionEncryptionKey) != 64 {
		return fmt.Errorf("SESSION_ENCRYPTION_KEY must be 64 hex characters (generate with: openssl rand -hex 32)")
	}

	if c.ChatbotSharedSecret == "" {
		log.Warn().Msg("CHATBOT_SHARED_SECRET is empty: phone-based authentication will always fail")
	}

	if isProduction {
		if err := validateSecret("CHATBOT_SHARED_SECRET", c.ChatbotSharedSecret); err != nil {
			return err
		}
		if c.InboundAPIToken == "" {
			log.Warn().Msg("INBOUND_API_TOKEN is empty in production: inbound endpoint is unauthenticated")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.SessionStore == SessionStoreRedis && c.SessionEncryptionKey == "" {
			log.Warn().Msg("SESSION_ENCRYPTION_KEY is empty in production: session records will not be encrypted at rest")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 16 {
		return fmt.Errorf("%s must be at least 16 characters in production", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
