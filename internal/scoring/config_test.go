package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-12)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "weights do not sum to one", mutate: func(c *Config) { c.Weights.QuestionAccuracy = 0.5 }},
		{name: "floor above ceiling", mutate: func(c *Config) { c.ScoreFloor = 310 }},
		{name: "zero sd", mutate: func(c *Config) { c.PopulationSD = 0 }},
		{name: "inverted pass bounds", mutate: func(c *Config) { c.PassProbabilityMin = 100 }},
		{name: "default out of range", mutate: func(c *Config) { c.Defaults.SpeedEfficiency = 120 }},
		{name: "attempt limit below trend windows", mutate: func(c *Config) { c.AttemptLimit = 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("file overrides selected keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scoring.yaml")
		require.NoError(t, os.WriteFile(path, []byte("population_sd: 18\nconfidence_band: 10\n"), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 18.0, cfg.PopulationSD)
		assert.Equal(t, 10, cfg.ConfidenceBand)
		assert.Equal(t, DefaultConfig().Weights, cfg.Weights)
	})

	t.Run("invalid weights rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scoring.yaml")
		require.NoError(t, os.WriteFile(path, []byte("weights:\n  question_accuracy: 0.9\n"), 0o600))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
