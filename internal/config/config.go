package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/dennisdiepolder/monti/feedback/internal/ingestion"
	"github.com/dennisdiepolder/monti/feedback/internal/storage"
	"github.com/dennisdiepolder/monti/feedback/internal/trend"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel         string
	Store            storage.Config
	TrendDeadBandPct float64
	WriteRetries     int
	RosterPath       string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Store:      storage.LoadConfig(),
		RosterPath: getEnv("ROSTER_PATH", "data/roster.json"),
	}

	deadBand, err := strconv.ParseFloat(getEnv("TREND_DEADBAND_PCT", strconv.FormatFloat(trend.DefaultDeadBandPct, 'f', -1, 64)), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TREND_DEADBAND_PCT: %w", err)
	}
	if deadBand < 0 || math.IsNaN(deadBand) || math.IsInf(deadBand, 0) {
		return nil, fmt.Errorf("invalid TREND_DEADBAND_PCT: %v is not a non-negative percentage", deadBand)
	}
	config.TrendDeadBandPct = deadBand

	retries, err := strconv.Atoi(getEnv("WRITE_RETRIES", strconv.Itoa(ingestion.DefaultWriteRetries)))
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_RETRIES: %w", err)
	}
	if retries < 0 {
		return nil, fmt.Errorf("invalid WRITE_RETRIES: %d is negative", retries)
	}
	config.WriteRetries = retries

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
