package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds every runtime setting, sourced from the environment.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseDSN string
	LogLevel    string

	Tracing   TracingConfig
	Bootstrap BootstrapConfig

	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// BootstrapConfig controls startup seeding.
type BootstrapConfig struct {
	EnsureDefaultAdmin bool
	SeedDemoData       bool
}

// Load reads configuration from the environment. A .env file is honored
// for local development and silently ignored when absent.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: envString("PERKSTORE_ENV", "development"),
		HTTPAddr:    envString("PERKSTORE_HTTP_ADDR", ":8080"),
		DatabaseDSN: envString("PERKSTORE_DATABASE_DSN", ""),
		LogLevel:    envString("PERKSTORE_LOG_LEVEL", "info"),
		Tracing: TracingConfig{
			Enabled:          envBool("PERKSTORE_TRACING_ENABLED", false),
			ExporterEndpoint: envString("PERKSTORE_TRACING_ENDPOINT", "localhost:4317"),
			ExporterProtocol: envString("PERKSTORE_TRACING_PROTOCOL", "grpc"),
			SamplingRatio:    envFloat("PERKSTORE_TRACING_SAMPLING_RATIO", 1.0),
		},
		Bootstrap: BootstrapConfig{
			EnsureDefaultAdmin: envBool("PERKSTORE_BOOTSTRAP_ADMIN", true),
			SeedDemoData:       envBool("PERKSTORE_BOOTSTRAP_DEMO", false),
		},
		CheckoutRateLimit:  envInt("PERKSTORE_CHECKOUT_RATE_LIMIT", 30),
		CheckoutRateWindow: envDuration("PERKSTORE_CHECKOUT_RATE_WINDOW", time.Minute),
	}

	if cfg.DatabaseDSN == "" {
		return Config{}, fmt.Errorf("PERKSTORE_DATABASE_DSN is required")
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
