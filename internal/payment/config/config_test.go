package config

import (
	"testing"

	"github.com/spf13/viper"
)

func loadWithEnv(t *testing.T, env map[string]string) Config {
	t.Helper()
	viper.Reset()
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := loadWithEnv(t, map[string]string{
		"DATABASE_URL":          "postgres://localhost/fitlink",
		"RABBITMQ_URL":          "amqp://localhost:5672/",
		"STRIPE_API_KEY":        "sk_test_123",
		"STRIPE_WEBHOOK_SECRET": "whsec_123",
	})

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.PlanEventQueue != "payment_service.gym_plan_events" {
		t.Errorf("PlanEventQueue = %q", cfg.PlanEventQueue)
	}
	if cfg.SessionEventQueue != "payment_service.trainer_session_events" {
		t.Errorf("SessionEventQueue = %q", cfg.SessionEventQueue)
	}
	if cfg.BillingCurrency != "usd" {
		t.Errorf("BillingCurrency = %q, want usd", cfg.BillingCurrency)
	}
	if cfg.WebhookDedupTTLHrs != 24 {
		t.Errorf("WebhookDedupTTLHrs = %d, want 24", cfg.WebhookDedupTTLHrs)
	}
	if cfg.WebhookDedupPrefix != "fitlink:webhook_events" {
		t.Errorf("WebhookDedupPrefix = %q", cfg.WebhookDedupPrefix)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg := loadWithEnv(t, map[string]string{
		"SERVER_PORT":             "9090",
		"DATABASE_URL":            "postgres://localhost/fitlink",
		"STRIPE_API_KEY":          "sk_test_123",
		"STRIPE_WEBHOOK_SECRET":   "whsec_123",
		"BILLING_CURRENCY":        "EUR",
		"WEBHOOK_DEDUP_TTL_HOURS": "48",
	})

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.BillingCurrency != "eur" {
		t.Errorf("BillingCurrency = %q, want normalized eur", cfg.BillingCurrency)
	}
	if cfg.WebhookDedupTTLHrs != 48 {
		t.Errorf("WebhookDedupTTLHrs = %d, want 48", cfg.WebhookDedupTTLHrs)
	}
}

func TestLoadConfigPlatformPortWins(t *testing.T) {
	cfg := loadWithEnv(t, map[string]string{
		"SERVER_PORT": "9090",
		"PORT":        "10000",
	})

	if cfg.ServerPort != "10000" {
		t.Errorf("ServerPort = %q, want PORT to win", cfg.ServerPort)
	}
}

func TestLoadConfigStripeKeyAlias(t *testing.T) {
	cfg := loadWithEnv(t, map[string]string{
		"STRIPE_SECRET_KEY": "sk_test_alias",
	})

	if cfg.StripeAPIKey != "sk_test_alias" {
		t.Errorf("StripeAPIKey = %q, want alias value", cfg.StripeAPIKey)
	}
}
