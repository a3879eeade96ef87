package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service settings, populated from environment variables.
// Study inputs (locations, score parameters, sources) live in YAML files
// under ConfigDir and are loaded by LoadStudy.
type Config struct {
	ConfigDir string
	CacheDir  string
	OutputDir string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Provider transport.
	ProviderTimeout    time.Duration
	ProviderMaxRetries int
	ArchiveBaseURL     string
	MarineBaseURL      string

	// Optional publishing of monthly rows.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	maxRetries, err := parseNonNegativeInt("PROVIDER_MAX_RETRIES", 2)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ConfigDir:          envOrDefault("CONFIG_DIR", "config"),
		CacheDir:           envOrDefault("CACHE_DIR", "cache"),
		OutputDir:          envOrDefault("OUTPUT_DIR", "outputs"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		ProviderTimeout:    providerTimeout,
		ProviderMaxRetries: maxRetries,
		ArchiveBaseURL:     envOrDefault("OPEN_METEO_ARCHIVE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		MarineBaseURL:      envOrDefault("OPEN_METEO_MARINE_URL", "https://marine-api.open-meteo.com/v1/marine"),
		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         envOrDefault("KAFKA_TOPIC", "climate-monthly-rows"),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
