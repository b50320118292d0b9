// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL (city reference data, transport options)
	PostgresURI string

	// Enrichment API
	EnrichmentBaseURL      string
	EnrichmentClientID     string
	EnrichmentClientSecret string
	EnrichmentTokenURL     string

	// Image search
	ImageSearchAPIKey   string
	ImageSearchEngineID string
	ImageFetchPerSecond int

	// Planner
	HomeBaseCity string
	UndoExpiry   time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "tripline"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", "host=localhost user=tripline dbname=tripline port=5432"),

		EnrichmentBaseURL:      getEnv("ENRICHMENT_BASE_URL", ""),
		EnrichmentClientID:     getEnv("ENRICHMENT_CLIENT_ID", ""),
		EnrichmentClientSecret: getEnv("ENRICHMENT_CLIENT_SECRET", ""),
		EnrichmentTokenURL:     getEnv("ENRICHMENT_TOKEN_URL", ""),

		ImageSearchAPIKey:   getEnv("IMAGE_SEARCH_API_KEY", ""),
		ImageSearchEngineID: getEnv("IMAGE_SEARCH_ENGINE_ID", ""),
		ImageFetchPerSecond: getEnvAsInt("IMAGE_FETCH_PER_SECOND", 2),

		HomeBaseCity: getEnv("HOME_BASE_CITY", "London"),
		UndoExpiry:   time.Duration(getEnvAsInt("UNDO_EXPIRY_SECONDS", 30)) * time.Second,
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
