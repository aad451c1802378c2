package config

import (
	"os"
	"strconv"
	"time"

	"event-checkout/internal/services/ticketing"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL string

	// Ticketing backend
	Ticketing ticketing.ClientConfig
	Listener  ticketing.ListenerConfig

	// PubNub configuration (session notifications)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Checkout configuration
	SessionTTL        time.Duration
	SeatReloadEvery   time.Duration
	SeatCacheTTL      time.Duration
	CleanupInterval   time.Duration
	MaxStagedFileSize int64

	// Rate limiting
	RateLimitPerMinute int
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// Ticketing backend
		Ticketing: ticketing.ClientConfig{
			BaseURL: getEnv("TICKETING_BASE_URL", "http://localhost:3000/api"),
			APIKey:  getEnv("TICKETING_API_KEY", ""),
		},
		Listener: ticketing.ListenerConfig{
			SubscribeKey: getEnv("PAYMENT_PN_SUBSCRIBE_KEY", ""),
			UserID:       getEnv("PAYMENT_PN_UUID", "event-checkout"),
			Channel:      getEnv("PAYMENT_PN_CHANNEL", "payment-notifications"),
		},

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Checkout
		SessionTTL:        getEnvAsDuration("SESSION_TTL", "30m"),
		SeatReloadEvery:   getEnvAsDuration("SEAT_RELOAD_EVERY", "10s"),
		SeatCacheTTL:      getEnvAsDuration("SEAT_CACHE_TTL", "5m"),
		CleanupInterval:   getEnvAsDuration("CLEANUP_INTERVAL", "1m"),
		MaxStagedFileSize: int64(getEnvAsInt("MAX_STAGED_FILE_SIZE", 5242880)),

		// Rate limiting
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
