package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string
	GeoIPDBPath string

	// Upstream image-generation service (async predictions API).
	PredictBaseURL string
	PredictToken   string
	PredictModel   string

	// External checkout service.
	CheckoutBaseURL   string
	CheckoutSecretKey string
	WebhookSecret     string
	CheckoutSuccess   string
	CheckoutCancel    string

	// Credit policy. Generation is charged at unlock time for anonymous
	// submissions; enhancement is charged before the job is submitted.
	CreditsGenerate       int64
	CreditsUnlock         int64
	CreditsEnhance        int64
	RefundEnhanceOnFail   bool
	PendingTransactionTTL time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		PredictBaseURL: getEnv("PREDICT_BASE_URL", "https://api.replicate.com/v1"),
		PredictToken:   os.Getenv("PREDICT_API_TOKEN"),
		PredictModel:   getEnv("PREDICT_MODEL", "google/nano-banana"),

		CheckoutBaseURL:   getEnv("CHECKOUT_BASE_URL", "https://api.stripe.com"),
		CheckoutSecretKey: os.Getenv("CHECKOUT_SECRET_KEY"),
		WebhookSecret:     os.Getenv("CHECKOUT_WEBHOOK_SECRET"),
		CheckoutSuccess:   getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/?checkout=success"),
		CheckoutCancel:    getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/?checkout=cancel"),

		CreditsGenerate:       int64(getEnvInt("CREDITS_GENERATE", 3)),
		CreditsUnlock:         int64(getEnvInt("CREDITS_UNLOCK", 30)),
		CreditsEnhance:        int64(getEnvInt("CREDITS_ENHANCE", 10)),
		RefundEnhanceOnFail:   getEnvBool("REFUND_ENHANCE_ON_FAILURE", false),
		PendingTransactionTTL: time.Hour * time.Duration(getEnvInt("PENDING_TRANSACTION_TTL_HOURS", 24)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.CreditsGenerate < 0 || cfg.CreditsUnlock < 0 || cfg.CreditsEnhance < 0 {
		return nil, fmt.Errorf("credit costs must be non-negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
