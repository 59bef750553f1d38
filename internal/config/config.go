package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Broker statement imports
	ImportDir      string
	ImportSchedule string
	// ImportUserID owns trades created by scheduled directory scans. Zero
	// disables the scan job; uploads through the API are unaffected.
	ImportUserID uint
	ImportBroker string

	// Market data
	QuoteFeedURL         string
	PriceRefreshSchedule string
	PriceCacheTTL        time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "fundflow"),
		DBPassword: getEnv("DB_PASSWORD", "fundflow"),
		DBName:     getEnv("DB_NAME", "fundflow"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// Imports: where downloaded broker statements land, and when to scan them.
		ImportDir:      getEnv("IMPORT_DIR", "statements"),
		ImportSchedule: getEnv("IMPORT_SCHEDULE", "0 18 * * MON-FRI"),
		ImportBroker:   getEnv("IMPORT_BROKER", "IBKR"),

		// Market data refresh for assets with open exposure.
		QuoteFeedURL:         getEnv("QUOTE_FEED_URL", ""),
		PriceRefreshSchedule: getEnv("PRICE_REFRESH_SCHEDULE", "*/15 9-17 * * MON-FRI"),
	}

	if idStr := getEnv("IMPORT_USER_ID", ""); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			log.Printf("Warning: invalid IMPORT_USER_ID value '%s', scheduled imports disabled\n", idStr)
		} else {
			config.ImportUserID = uint(id)
		}
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	ttlStr := getEnv("PRICE_CACHE_TTL", "5m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		log.Printf("Warning: invalid PRICE_CACHE_TTL value '%s', falling back to 5m\n", ttlStr)
		ttl = 5 * time.Minute
	}
	config.PriceCacheTTL = ttl

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
