package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("STRIPE_API_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("JWT_SECRET", "secret")
	for _, key := range []string{"PORT", "MONGO_DB", "POSTGRES_HOST", "STRIPE_CURRENCY", "FRONTEND_URL",
		"TRUST_GATEWAY_HEADERS", "WEBHOOK_EVENT_TTL", "REQUEST_TIMEOUT", "RATE_LIMIT_BURST", "AWS_USE_SECRETS",
		"CLOUDWATCH_ENABLED", "CLOUDWATCH_LOG_GROUP"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig(context.Background(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "tourism", cfg.MongoDB)
	assert.Equal(t, "usd", cfg.StripeCurrency)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.Equal(t, 72*time.Hour, cfg.WebhookEventTTL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.TrustGatewayHeaders)
	assert.Empty(t, cfg.Postgres.Host)
	assert.False(t, cfg.CloudWatchEnabled)
	assert.Equal(t, "/tourism/services", cfg.CloudWatchLogGroup)
}

func TestLoadConfig_CloudWatch(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLOUDWATCH_ENABLED", "true")
	t.Setenv("CLOUDWATCH_LOG_GROUP", "/tourism/booking")

	cfg, err := LoadConfig(context.Background(), zap.NewNop())
	require.NoError(t, err)
	assert.True(t, cfg.CloudWatchEnabled)
	assert.Equal(t, "/tourism/booking", cfg.CloudWatchLogGroup)

	t.Setenv("CLOUDWATCH_ENABLED", "maybe")
	_, err = LoadConfig(context.Background(), zap.NewNop())
	assert.ErrorContains(t, err, "CLOUDWATCH_ENABLED")
}

func TestLoadConfig_Missing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MONGO_URI", "")
	t.Setenv("STRIPE_API_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(context.Background(), zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, "missing required config: MONGO_URI, STRIPE_API_KEY, STRIPE_WEBHOOK_SECRET, JWT_SECRET", err.Error())
}

func TestLoadConfig_TrustedHeadersWithoutSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TRUST_GATEWAY_HEADERS", "true")

	cfg, err := LoadConfig(context.Background(), zap.NewNop())
	require.NoError(t, err)
	assert.True(t, cfg.TrustGatewayHeaders)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	for key, val := range map[string]string{
		"WEBHOOK_EVENT_TTL":     "forever",
		"REQUEST_TIMEOUT":       "-1s",
		"TRUST_GATEWAY_HEADERS": "maybe",
		"RATE_LIMIT_BURST":      "0",
	} {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, val)
			_, err := LoadConfig(context.Background(), zap.NewNop())
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoadConfig_PostgresIncomplete(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USER", "")

	_, err := LoadConfig(context.Background(), zap.NewNop())
	assert.ErrorContains(t, err, "postgres config incomplete")
}

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", errors.New("ResourceNotFoundException")
	}
	return v, nil
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{StripeSecretKey: "env-key", StripeWebhookSecret: "env-whsec", JWTSecret: "env-jwt"}
	applySecrets(context.Background(), cfg, fakeSecrets{
		"tourism/STRIPE_API_KEY": "sm-key",
		"tourism/JWT_SECRET":     "",
	}, zap.NewNop())

	assert.Equal(t, "sm-key", cfg.StripeSecretKey)
	assert.Equal(t, "env-whsec", cfg.StripeWebhookSecret)
	assert.Equal(t, "env-jwt", cfg.JWTSecret)
}
