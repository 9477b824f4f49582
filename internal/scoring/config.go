package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights are the per-factor coefficients of the weighted score. They must sum to 1.
type Weights struct {
	QuestionAccuracy  float64 `yaml:"question_accuracy" json:"question_accuracy"`
	ClinicalReasoning float64 `yaml:"clinical_reasoning" json:"clinical_reasoning"`
	KnowledgeCoverage float64 `yaml:"knowledge_coverage" json:"knowledge_coverage"`
	SpeedEfficiency   float64 `yaml:"speed_efficiency" json:"speed_efficiency"`
	PerformanceTrend  float64 `yaml:"performance_trend" json:"performance_trend"`
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.QuestionAccuracy + w.ClinicalReasoning + w.KnowledgeCoverage + w.SpeedEfficiency + w.PerformanceTrend
}

// MatchWeights blend the pass probabilities and coverage into the match probability
type MatchWeights struct {
	Step1    float64 `yaml:"step1" json:"step1"`
	Step2    float64 `yaml:"step2" json:"step2"`
	Coverage float64 `yaml:"coverage" json:"coverage"`
}

// Config holds every constant used by the aggregator and the projection engine.
type Config struct {
	Weights  Weights `yaml:"weights"`
	Defaults Factors `yaml:"defaults"`

	// Score reporting scale
	ScoreFloor        int `yaml:"score_floor"`
	ScoreCeiling      int `yaml:"score_ceiling"`
	Step1PassingScore int `yaml:"step1_passing_score"`
	Step2PassingScore int `yaml:"step2_passing_score"`

	// Secondary score perturbation: round((rand - bias) * spread)
	Step2Bias   float64 `yaml:"step2_bias"`
	Step2Spread float64 `yaml:"step2_spread"`

	// Logistic pass probability
	PassSlope          float64 `yaml:"pass_slope"`
	PassProbabilityMin float64 `yaml:"pass_probability_min"`
	PassProbabilityMax float64 `yaml:"pass_probability_max"`

	// Reference score distribution for percentiles
	PopulationMean float64 `yaml:"population_mean"`
	PopulationSD   float64 `yaml:"population_sd"`
	PercentileMin  float64 `yaml:"percentile_min"`
	PercentileMax  float64 `yaml:"percentile_max"`

	MatchWeights        MatchWeights `yaml:"match_weights"`
	MatchProbabilityCap float64      `yaml:"match_probability_cap"`

	ConfidenceBand int     `yaml:"confidence_band"`
	TrendThreshold float64 `yaml:"trend_threshold"`

	// Speed efficiency
	IdealSecondsPerQuestion float64 `yaml:"ideal_seconds_per_question"`
	SpeedPenaltyPerSecond   float64 `yaml:"speed_penalty_per_second"`
	SpeedFloor              float64 `yaml:"speed_floor"`
	SpeedCeiling            float64 `yaml:"speed_ceiling"`

	// Performance trend
	TrendWindow   int     `yaml:"trend_window"`
	TrendBaseline float64 `yaml:"trend_baseline"`

	// How many recent attempts feed the aggregator
	AttemptLimit int `yaml:"attempt_limit"`
}

// DefaultConfig returns the production constants
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			QuestionAccuracy:  0.35,
			ClinicalReasoning: 0.25,
			KnowledgeCoverage: 0.20,
			SpeedEfficiency:   0.10,
			PerformanceTrend:  0.10,
		},
		Defaults: Factors{
			QuestionAccuracy:  70,
			ClinicalReasoning: 65,
			KnowledgeCoverage: 50,
			SpeedEfficiency:   70,
			PerformanceTrend:  70,
		},
		ScoreFloor:        196,
		ScoreCeiling:      300,
		Step1PassingScore: 196,
		Step2PassingScore: 209,

		Step2Bias:   0.3,
		Step2Spread: 10,

		PassSlope:          0.15,
		PassProbabilityMin: 0.1,
		PassProbabilityMax: 99.9,

		PopulationMean: 232,
		PopulationSD:   20,
		PercentileMin:  1,
		PercentileMax:  99,

		MatchWeights:        MatchWeights{Step1: 0.4, Step2: 0.3, Coverage: 0.3},
		MatchProbabilityCap: 99,

		ConfidenceBand: 15,
		TrendThreshold: 2,

		IdealSecondsPerQuestion: 60,
		SpeedPenaltyPerSecond:   0.5,
		SpeedFloor:              40,
		SpeedCeiling:            100,

		TrendWindow:   5,
		TrendBaseline: 50,

		AttemptLimit: 50,
	}
}

const weightTolerance = 1e-9

// Validate checks the invariants the engine relies on
func (c Config) Validate() error {
	var errs []error

	if math.Abs(c.Weights.Sum()-1) > weightTolerance {
		errs = append(errs, fmt.Errorf("weights must sum to 1, got %.6f", c.Weights.Sum()))
	}
	if c.ScoreFloor >= c.ScoreCeiling {
		errs = append(errs, fmt.Errorf("score floor %d must be below ceiling %d", c.ScoreFloor, c.ScoreCeiling))
	}
	if c.PopulationSD <= 0 {
		errs = append(errs, errors.New("population sd must be positive"))
	}
	if c.PassSlope <= 0 {
		errs = append(errs, errors.New("pass slope must be positive"))
	}
	if c.PassProbabilityMin >= c.PassProbabilityMax {
		errs = append(errs, errors.New("pass probability min must be below max"))
	}
	if c.PercentileMin >= c.PercentileMax {
		errs = append(errs, errors.New("percentile min must be below max"))
	}
	if c.SpeedFloor >= c.SpeedCeiling {
		errs = append(errs, errors.New("speed floor must be below ceiling"))
	}
	if c.ConfidenceBand < 0 {
		errs = append(errs, errors.New("confidence band must not be negative"))
	}
	if c.TrendWindow <= 0 {
		errs = append(errs, errors.New("trend window must be positive"))
	}
	if c.AttemptLimit < 2*c.TrendWindow {
		errs = append(errs, fmt.Errorf("attempt limit %d must cover two trend windows", c.AttemptLimit))
	}
	for name, v := range map[string]float64{
		"question_accuracy":  c.Defaults.QuestionAccuracy,
		"clinical_reasoning": c.Defaults.ClinicalReasoning,
		"knowledge_coverage": c.Defaults.KnowledgeCoverage,
		"speed_efficiency":   c.Defaults.SpeedEfficiency,
		"performance_trend":  c.Defaults.PerformanceTrend,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("default %s out of range: %v", name, v))
		}
	}

	return errors.Join(errs...)
}

// LoadConfig returns DefaultConfig overridden by the YAML file at path, if any.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read scoring config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse scoring config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid scoring config: %w", err)
	}

	return cfg, nil
}
