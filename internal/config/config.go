package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"tiffin-promotions/internal/pkg/jwt"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type AppConfig struct {
	// Server
	HTTPAddr string
	Stage    string
	LogLevel string

	// Storage
	StoreBackend   string
	DatabaseURL    string
	SeedPromotions bool

	// Redis; empty address disables revocation and rate limiting
	RedisAddr string
	RedisPass string

	// JWT
	JWT jwt.Config

	// HTTP
	CORSAllowedOrigins []string
	RateLimitMax       int64
	RateLimitWindow    time.Duration
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Stage:    getEnv("APP_STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SeedPromotions: getEnvBool("SEED_PROMOTIONS", true),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisPass: getEnv("REDIS_PASS", ""),

		JWT: jwt.Config{
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", "/app/secrets/jwt_public.pem"),
			Issuer:   getEnv("JWT_ISSUER", ""),
			Audience: getEnv("JWT_AUDIENCE", ""),
		},

		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitMax:       getEnvInt64("RATE_LIMIT_MAX", 120),
		RateLimitWindow:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt64(key string, fallback int64) int64 {
	n, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
