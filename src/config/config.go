package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Upload settings
	MaxUploadSizeBytes int64
	UploadDir          string

	// Assistant (LLM) settings
	GeminiModel      string
	AssistantEnabled bool

	// Risk analysis thresholds
	HighRiskTransactionAmount float64
	FraudDetectionEnabled     bool

	// Report cache tuning
	CacheExpiration      time.Duration
	CacheCleanupInterval time.Duration

	// Frontend URL for reference (CORS)
	FrontendBaseURL string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from a subdir)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "52428800") // 50MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 50MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 50 * 1024 * 1024
	}

	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./finsight.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Uploads
		MaxUploadSizeBytes: maxUploadSizeBytes,
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),

		// Assistant
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AssistantEnabled: getEnvAsBool("ASSISTANT_ENABLED", true),

		// Risk thresholds
		HighRiskTransactionAmount: getEnvAsFloat("HIGH_RISK_TRANSACTION_AMOUNT", 100000),
		FraudDetectionEnabled:     getEnvAsBool("FRAUD_DETECTION_ENABLED", true),

		// Cache
		CacheExpiration:      getEnvAsDuration("CACHE_EXPIRATION", 15*time.Minute),
		CacheCleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		// Frontend
		FrontendBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, Model=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.GeminiModel)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(valueStr)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %v", key, valueStr, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %f", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
