/**
 * @description
 * This package handles the configuration management for the payment-service. It
 * uses the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application
 * settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the payment-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	PlanEventQueue      string `mapstructure:"PLAN_EVENT_QUEUE"`
	SessionEventQueue   string `mapstructure:"SESSION_EVENT_QUEUE"`
	StripeAPIKey        string `mapstructure:"STRIPE_API_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	BillingCurrency     string `mapstructure:"BILLING_CURRENCY"`
	JWKSURL             string `mapstructure:"JWKS_URL"`
	CheckoutSuccessURL  string `mapstructure:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL   string `mapstructure:"CHECKOUT_CANCEL_URL"`
	LapseSchedule       string `mapstructure:"SUBSCRIPTION_LAPSE_SCHEDULE"`
	WebhookDedupPrefix  string `mapstructure:"WEBHOOK_DEDUP_PREFIX"`
	WebhookDedupTTLHrs  int    `mapstructure:"WEBHOOK_DEDUP_TTL_HOURS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PLAN_EVENT_QUEUE", "payment_service.gym_plan_events")
	viper.SetDefault("SESSION_EVENT_QUEUE", "payment_service.trainer_session_events")
	viper.SetDefault("BILLING_CURRENCY", "usd")
	viper.SetDefault("CHECKOUT_SUCCESS_URL", "https://fitlink.app/billing/success")
	viper.SetDefault("CHECKOUT_CANCEL_URL", "https://fitlink.app/billing/cancel")
	viper.SetDefault("SUBSCRIPTION_LAPSE_SCHEDULE", "0 3 * * *")
	viper.SetDefault("WEBHOOK_DEDUP_PREFIX", "fitlink:webhook_events")
	viper.SetDefault("WEBHOOK_DEDUP_TTL_HOURS", 24)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "PAYMENT_REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PLAN_EVENT_QUEUE")
	_ = viper.BindEnv("SESSION_EVENT_QUEUE")
	_ = viper.BindEnv("STRIPE_API_KEY", "STRIPE_API_KEY", "STRIPE_SECRET_KEY")
	_ = viper.BindEnv("STRIPE_WEBHOOK_SECRET")
	_ = viper.BindEnv("BILLING_CURRENCY")
	_ = viper.BindEnv("JWKS_URL")
	_ = viper.BindEnv("CHECKOUT_SUCCESS_URL")
	_ = viper.BindEnv("CHECKOUT_CANCEL_URL")
	_ = viper.BindEnv("SUBSCRIPTION_LAPSE_SCHEDULE")
	_ = viper.BindEnv("WEBHOOK_DEDUP_PREFIX")
	_ = viper.BindEnv("WEBHOOK_DEDUP_TTL_HOURS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// Hosting platforms inject PORT; it wins over SERVER_PORT.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.BillingCurrency = strings.ToLower(strings.TrimSpace(config.BillingCurrency))
	if config.BillingCurrency == "" {
		config.BillingCurrency = "usd"
	}
	if config.WebhookDedupTTLHrs <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive dedup ttl configured; using default\" ttl_hours=%d", config.WebhookDedupTTLHrs)
		config.WebhookDedupTTLHrs = 24
	}

	return
}
