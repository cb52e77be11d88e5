// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	// Embedded zone data so TIMEZONE works on hosts without /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultRulesDir     = "config"
	DefaultSessionsFile = "gambling_sessions.csv"
	DefaultTimezone     = "America/New_York"

	minTaxYear = 1900
	maxTaxYear = 2100
)

// Config holds all configuration for the application.
type Config struct {
	RulesDir     string
	SessionsFile string
	DatabaseURL  string
	LogLevel     string
	LogFormat    string
	Professional bool
	// TaxYear overrides the tax year from the rule files when non-zero.
	TaxYear  int
	Timezone string

	// OpenTelemetry exporter selection; empty disables the signal.
	TracesExporter  string
	MetricsExporter string
	OTLPProtocol    string
}

// Load reads configuration from a .env file, if present, and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RulesDir:     getEnv("RULES_DIR", DefaultRulesDir),
		SessionsFile: getEnv("SESSIONS_FILE", DefaultSessionsFile),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		LogFormat:    lowerEnv("LOG_FORMAT"),
		Professional: os.Getenv("PROFESSIONAL_MODE") == "true",

		TracesExporter:  lowerEnv("OTEL_TRACES_EXPORTER"),
		MetricsExporter: lowerEnv("OTEL_METRICS_EXPORTER"),
		OTLPProtocol:    lowerEnv("OTEL_EXPORTER_OTLP_PROTOCOL"),
	}

	var errs []string

	cfg.Timezone = getEnv("TIMEZONE", DefaultTimezone)
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("TIMEZONE %q is not a known time zone", cfg.Timezone))
	}

	if yearStr := strings.TrimSpace(os.Getenv("TAX_YEAR")); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || year < minTaxYear || year > maxTaxYear {
			errs = append(errs, fmt.Sprintf("TAX_YEAR must be a year between %d and %d", minTaxYear, maxTaxYear))
		} else {
			cfg.TaxYear = year
		}
	}

	switch cfg.LogFormat {
	case "", "console", "json":
	default:
		errs = append(errs, "LOG_FORMAT must be console or json")
	}

	exporters := []struct{ key, value string }{
		{"OTEL_TRACES_EXPORTER", cfg.TracesExporter},
		{"OTEL_METRICS_EXPORTER", cfg.MetricsExporter},
	}
	for _, e := range exporters {
		switch e.value {
		case "", "none", "console", "otlp":
		default:
			errs = append(errs, e.key+" must be none, console or otlp")
		}
	}

	switch cfg.OTLPProtocol {
	case "", "grpc", "http/protobuf":
	default:
		errs = append(errs, "OTEL_EXPORTER_OTLP_PROTOCOL must be grpc or http/protobuf")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func lowerEnv(key string) string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(key)))
}

// JSONLogs reports whether logs should be written as JSON.
func (c *Config) JSONLogs() bool {
	return c.LogFormat == "json"
}

// HasDatabase reports whether a PostgreSQL session store is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// Location returns the time zone used for default session dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
