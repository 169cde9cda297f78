package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LakshanUd/sl-go-tour-backend/database"
	awspkg "github.com/LakshanUd/sl-go-tour-backend/pkg/aws"
)

// Config holds all configuration for the booking service.
type Config struct {
	Port string
	Env  string

	MongoURI string
	MongoDB  string
	RedisURL string
	// Postgres is optional; an empty Host disables the payments ledger.
	Postgres database.PostgresConfig

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string
	FrontendURL         string

	JWTSecret           string
	TrustGatewayHeaders bool

	AllowedOrigins     string
	BookingSNSTopicARN string
	CloudWatchEnabled  bool
	CloudWatchLogGroup string
	WebhookEventTTL    time.Duration
	RequestTimeout     time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int
}

type secretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("APP_ENV", "development"),
		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "tourism"),
		RedisURL: os.Getenv("REDIS_URL"),
		Postgres: database.PostgresConfig{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   getEnv("POSTGRES_DB", "payments"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Colombo"),
		},
		StripeSecretKey:     os.Getenv("STRIPE_API_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AllowedOrigins:      getEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
		BookingSNSTopicARN:  os.Getenv("BOOKING_SNS_TOPIC_ARN"),
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/tourism/services"),
	}

	var err error
	if cfg.TrustGatewayHeaders, err = getBool("TRUST_GATEWAY_HEADERS", false); err != nil {
		return nil, err
	}
	if cfg.CloudWatchEnabled, err = getBool("CLOUDWATCH_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.WebhookEventTTL, err = getDuration("WEBHOOK_EVENT_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}

	// Override Stripe and JWT secrets from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, endpoint, err := awspkg.LoadAWSConfig(ctx); err == nil {
			applySecrets(ctx, cfg, awspkg.NewSecretsClient(awsCfg, endpoint), logger)
		} else {
			logger.Warn("AWS config unavailable, using environment secrets", zap.Error(err))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applySecrets(ctx context.Context, cfg *Config, sm secretGetter, logger *zap.Logger) {
	for name, dst := range map[string]*string{
		"tourism/STRIPE_API_KEY":        &cfg.StripeSecretKey,
		"tourism/STRIPE_WEBHOOK_SECRET": &cfg.StripeWebhookSecret,
		"tourism/JWT_SECRET":            &cfg.JWTSecret,
	} {
		v, err := sm.GetSecret(ctx, name)
		if err != nil {
			logger.Warn("Secret unavailable", zap.String("secret", name), zap.Error(err))
			continue
		}
		if v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	var missing []string
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_API_KEY")
	}
	if c.StripeWebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if c.JWTSecret == "" && !c.TrustGatewayHeaders {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.Postgres.Host != "" && (c.Postgres.User == "" || c.Postgres.Password == "") {
		return fmt.Errorf("postgres config incomplete: POSTGRES_USER and POSTGRES_PASSWORD are required with POSTGRES_HOST")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, val)
	}
	return d, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, val)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, val)
	}
	return n, nil
}
