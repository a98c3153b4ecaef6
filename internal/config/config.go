package config

import (
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config carries every tunable the process needs, loaded once at start.
type Config struct {
	ListenAddr string

	DBUsername string
	DBPassword string
	DBHost     string
	DBPort     string
	DBDatabase string
	DBSchema   string

	// Pre-shared webhook secret per provider. A provider without a secret
	// cannot have a webhook route mounted.
	PaystackWebhookSecret string
	FastPayWebhookSecret  string

	PaystackSecretKey string
	PaystackBaseURL   string
	FastPayAPIKey     string
	FastPayBaseURL    string

	IdentityBaseURL string
	CallbackBaseURL string

	DefaultProvider string
	PendingTimeout  time.Duration
	SweepInterval   time.Duration
}

func Load() *Config {
	return &Config{
		ListenAddr: getEnv("TOURNEYPAY_LISTEN_ADDR", ":8080"),

		DBUsername: os.Getenv("TOURNEYPAY_DB_USERNAME"),
		DBPassword: os.Getenv("TOURNEYPAY_DB_PASSWORD"),
		DBHost:     getEnv("TOURNEYPAY_DB_HOST", "localhost"),
		DBPort:     getEnv("TOURNEYPAY_DB_PORT", "5432"),
		DBDatabase: getEnv("TOURNEYPAY_DB_DATABASE", "tourneypay"),
		DBSchema:   getEnv("TOURNEYPAY_DB_SCHEMA", "public"),

		PaystackWebhookSecret: os.Getenv("TOURNEYPAY_PAYSTACK_WEBHOOK_SECRET"),
		FastPayWebhookSecret:  os.Getenv("TOURNEYPAY_FASTPAY_WEBHOOK_SECRET"),

		PaystackSecretKey: os.Getenv("TOURNEYPAY_PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   getEnv("TOURNEYPAY_PAYSTACK_BASE_URL", "https://api.paystack.co"),
		FastPayAPIKey:     os.Getenv("TOURNEYPAY_FASTPAY_API_KEY"),
		FastPayBaseURL:    os.Getenv("TOURNEYPAY_FASTPAY_BASE_URL"),

		IdentityBaseURL: os.Getenv("TOURNEYPAY_IDENTITY_BASE_URL"),
		CallbackBaseURL: os.Getenv("TOURNEYPAY_CALLBACK_BASE_URL"),

		DefaultProvider: getEnv("TOURNEYPAY_DEFAULT_PROVIDER", "paystack"),
		PendingTimeout:  getDuration("TOURNEYPAY_PENDING_TIMEOUT", 5*time.Minute),
		SweepInterval:   getDuration("TOURNEYPAY_SWEEP_INTERVAL", 2*time.Minute),
	}
}

// DatabaseURL builds the postgres connection string the pgx driver expects.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		c.DBUsername, c.DBPassword, c.DBHost, c.DBPort, c.DBDatabase, c.DBSchema,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
