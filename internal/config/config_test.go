package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "KAFKA_BROKERS", "EVENT_TOPIC_PREFIX",
		"OTEL_ENABLED", "OTEL_SAMPLER_RATIO", "SCORING_CONFIG_PATH", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "prep.", cfg.EventTopicPrefix)
	assert.False(t, cfg.OTel.Enabled)
	assert.InDelta(t, 0.1, cfg.OTel.SampleRatio, 1e-9)
	assert.Equal(t, 232.0, cfg.Scoring.PopulationMean)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	scoringPath := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(scoringPath, []byte("population_sd: 18\n"), 0o600))

	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://prep.example.com")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLER_RATIO", "0.5")
	t.Setenv("CASDOOR_ENDPOINT", "https://auth.example.com")
	t.Setenv("SCORING_CONFIG_PATH", scoringPath)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://prep.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.OTel.Enabled)
	assert.InDelta(t, 0.5, cfg.OTel.SampleRatio, 1e-9)
	assert.Equal(t, "https://auth.example.com", cfg.Casdoor.Endpoint)
	assert.Equal(t, 18.0, cfg.Scoring.PopulationSD)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"log level", "LOG_LEVEL", "loud"},
		{"port", "PORT", "http"},
		{"sample ratio", "OTEL_SAMPLER_RATIO", "2"},
		{"scoring file", "SCORING_CONFIG_PATH", "/does/not/exist.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
