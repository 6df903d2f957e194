package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service-level settings read from the environment. Product
// definitions live in the YAML products file, not here.
type Config struct {
	DatabaseURL     string
	Host            string
	Port            string
	ProductsPath    string
	ScanSchedule    string
	ScanConcurrency int
	FetchTimeout    time.Duration
	UseBrowser      bool
	AllowedOrigins  []string
	RateLimit       float64
}

// Load reads the configuration from environment variables with sensible
// defaults. DATABASE_URL accepts either a postgres:// DSN or a SQLite file
// path (the default).
func Load() *Config {
	return &Config{
		DatabaseURL:     getEnv("DATABASE_URL", "data/pricewatch.db"),
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "8080"),
		ProductsPath:    getEnv("PRODUCTS_CONFIG", "config/products.yaml"),
		ScanSchedule:    getEnv("SCAN_SCHEDULE", "0 0 */12 * * *"),
		ScanConcurrency: getEnvInt("SCAN_CONCURRENCY", 4),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		UseBrowser:      getEnvBool("USE_BROWSER", false),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		RateLimit:       getEnvFloat("RATE_LIMIT_RPS", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
