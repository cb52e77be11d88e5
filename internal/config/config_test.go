package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RULES_DIR", "SESSIONS_FILE", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT",
		"PROFESSIONAL_MODE", "TAX_YEAR", "TIMEZONE",
		"OTEL_TRACES_EXPORTER", "OTEL_METRICS_EXPORTER", "OTEL_EXPORTER_OTLP_PROTOCOL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("uses defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, DefaultRulesDir, cfg.RulesDir)
		require.Equal(t, DefaultSessionsFile, cfg.SessionsFile)
		require.Equal(t, DefaultTimezone, cfg.Timezone)
		require.Empty(t, cfg.DatabaseURL)
		require.False(t, cfg.HasDatabase())
		require.False(t, cfg.Professional)
		require.False(t, cfg.JSONLogs())
		require.Zero(t, cfg.TaxYear)
		require.Empty(t, cfg.TracesExporter)
		require.Empty(t, cfg.MetricsExporter)
	})

	t.Run("loads all config from env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RULES_DIR", "/etc/gambling-tax")
		t.Setenv("SESSIONS_FILE", "sessions-2025.csv")
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_FORMAT", "JSON")
		t.Setenv("PROFESSIONAL_MODE", "true")
		t.Setenv("TAX_YEAR", "2026")
		t.Setenv("TIMEZONE", "America/Chicago")
		t.Setenv("OTEL_TRACES_EXPORTER", "Console")
		t.Setenv("OTEL_METRICS_EXPORTER", "otlp")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "/etc/gambling-tax", cfg.RulesDir)
		require.Equal(t, "sessions-2025.csv", cfg.SessionsFile)
		require.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		require.True(t, cfg.HasDatabase())
		require.Equal(t, "debug", cfg.LogLevel)
		require.True(t, cfg.JSONLogs())
		require.True(t, cfg.Professional)
		require.Equal(t, 2026, cfg.TaxYear)
		require.Equal(t, "America/Chicago", cfg.Timezone)
		require.Equal(t, "console", cfg.TracesExporter)
		require.Equal(t, "otlp", cfg.MetricsExporter)
		require.Equal(t, "grpc", cfg.OTLPProtocol)
	})

	t.Run("professional mode requires literal true", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PROFESSIONAL_MODE", "yes")

		cfg, err := Load()
		require.NoError(t, err)
		require.False(t, cfg.Professional)
	})

}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric tax year", "TAX_YEAR", "twenty"},
		{"tax year too early", "TAX_YEAR", "1899"},
		{"tax year too late", "TAX_YEAR", "2101"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"unknown timezone", "TIMEZONE", "Mars/Olympus_Mons"},
		{"unknown traces exporter", "OTEL_TRACES_EXPORTER", "zipkin"},
		{"unknown metrics exporter", "OTEL_METRICS_EXPORTER", "prometheus"},
		{"unknown otlp protocol", "OTEL_EXPORTER_OTLP_PROTOCOL", "http/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			require.Error(t, err)
			require.Nil(t, cfg)
			require.Contains(t, err.Error(), tt.key)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TAX_YEAR", "abc")
		t.Setenv("LOG_FORMAT", "xml")
		t.Setenv("TIMEZONE", "Nowhere/Land")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "TAX_YEAR")
		require.Contains(t, err.Error(), "LOG_FORMAT")
		require.Contains(t, err.Error(), "TIMEZONE")
	})

	t.Run("accepts boundary years", func(t *testing.T) {
		for _, year := range []string{"1900", "2100"} {
			clearEnv(t)
			t.Setenv("TAX_YEAR", year)

			_, err := Load()
			require.NoError(t, err)
		}
	})
}

func TestConfig_Location(t *testing.T) {
	t.Run("loads configured zone", func(t *testing.T) {
		cfg := &Config{Timezone: "America/New_York"}
		loc := cfg.Location()
		require.Equal(t, "America/New_York", loc.String())

		now := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
		require.Equal(t, 31, now.In(loc).Day())
	})

	t.Run("falls back to UTC", func(t *testing.T) {
		cfg := &Config{Timezone: "not/a-zone"}
		require.Equal(t, time.UTC, cfg.Location())
	})
}
