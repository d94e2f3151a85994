package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Quality QualityConfig
	LLM     LLMConfig
	Batch   BatchConfig
}

// QualityConfig holds image-quality gate configuration
type QualityConfig struct {
	Threshold        float64 // Laplacian-variance cutoff for technical pass
	MaxImageSide     int     // longest side sent to the extraction model
	PHashMaxDistance int     // Hamming tolerance for duplicate matching; 0 = exact
}

// LLMConfig holds vision-model configuration
type LLMConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	FallbackModel string
	Timeout       time.Duration
}

// BatchConfig holds batch-driver configuration
type BatchConfig struct {
	Workers   int
	OutputDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Quality: QualityConfig{
			Threshold:        getEnvAsFloat64("QUALITY_THRESHOLD", 80.0),
			MaxImageSide:     getEnvAsInt("MAX_IMAGE_SIDE", 1024),
			PHashMaxDistance: getEnvAsInt("PHASH_MAX_DISTANCE", 0),
		},
		LLM: LLMConfig{
			APIKey:        getEnv("FIREWORKS_API_KEY", ""),
			BaseURL:       getEnv("FIREWORKS_BASE_URL", "https://api.fireworks.ai/inference/v1"),
			Model:         getEnv("FIREWORKS_MODEL", "accounts/fireworks/models/qwen2p5-vl-32b-instruct"),
			FallbackModel: getEnv("FIREWORKS_FALLBACK_MODEL", "accounts/fireworks/models/qwen2p5-vl-32b-instruct"),
			Timeout:       getEnvAsDuration("FIREWORKS_TIMEOUT", 30*time.Second),
		},
		Batch: BatchConfig{
			Workers:   getEnvAsInt("BATCH_WORKERS", 1),
			OutputDir: getEnv("BATCH_OUTPUT_DIR", "outputs"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "FIREWORKS_API_KEY is required", ErrInvalidInput)
	}
	if c.Quality.Threshold <= 0 {
		return NewAppError("CONFIG_ERROR", "QUALITY_THRESHOLD must be positive", ErrInvalidInput)
	}
	if c.Batch.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "BATCH_WORKERS must be at least 1", ErrInvalidInput)
	}
	return nil
}
