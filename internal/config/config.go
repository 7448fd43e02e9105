package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is process-wide, read-only after LoadFromEnv, and safe to share
// across concurrent verification calls.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	DetectorTimeout    time.Duration
	MaxRequestBodySize int64

	// Storage backend for photos referenced by URL: "http" or "azure".
	StorageBackend   string
	AzureAccountName string
	AzureAccountKey  string

	// External detector credentials. Empty means the detector is not
	// configured and is silently skipped.
	AzureModeratorKey string
	HiveAIKey         string

	Verification VerificationConfig
}

// VerificationConfig collects the tunable thresholds of the pipeline so
// they can be adjusted without touching algorithm logic.
type VerificationConfig struct {
	// Timestamp gating.
	StaleAfter   time.Duration // capture older than this fails
	AgingWarning time.Duration // capture older than this gets a warning

	// Authenticity indicator cutoffs.
	ArtifactSuspicion float64 // artifact score above this adds weight
	NoiseSuspicion    float64 // noise score below this adds weight

	// Scene classification cutoffs (percent of image area).
	MinVegetationPct  float64
	GoodVegetationPct float64
	SkyPct            float64
	MinPollutionPct   float64

	// Acceptance threshold on the aggregate score.
	MinAcceptScore int
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		DetectorTimeout:    parseDurationOrDefault("DETECTOR_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		StorageBackend:   getEnvOrDefault("STORAGE_BACKEND", "http"),
		AzureAccountName: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:  os.Getenv("AZURE_STORAGE_KEY"),

		AzureModeratorKey: os.Getenv("AZURE_CONTENT_MODERATOR_KEY"),
		HiveAIKey:         os.Getenv("HIVE_AI_KEY"),

		Verification: DefaultVerificationConfig(),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.DetectorTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, detector=%s)",
			cfg.RequestTimeout, cfg.DetectorTimeout)
	}
	if cfg.StorageBackend != "http" && cfg.StorageBackend != "azure" {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %q", cfg.StorageBackend)
	}
	return cfg, nil
}

// DefaultVerificationConfig returns the hand-tuned pipeline thresholds.
func DefaultVerificationConfig() VerificationConfig {
	return VerificationConfig{
		StaleAfter:        4 * time.Hour,
		AgingWarning:      2 * time.Hour,
		ArtifactSuspicion: 0.8,
		NoiseSuspicion:    0.1,
		MinVegetationPct:  3.0,
		GoodVegetationPct: 8.0,
		SkyPct:            20.0,
		MinPollutionPct:   10.0,
		MinAcceptScore:    70,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
