package scoring

import (
	"math"
	"math/rand/v2"
	"sync"
)

// RandomSource supplies uniform values in [0,1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type ConfidenceInterval struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Prediction is the projected exam outcome for one user
type Prediction struct {
	PredictedStep1Score  int                `json:"predicted_step1_score"`
	PredictedStep2Score  int                `json:"predicted_step2_score"`
	PassProbabilityStep1 float64            `json:"pass_probability_step1"`
	PassProbabilityStep2 float64            `json:"pass_probability_step2"`
	MatchProbability     float64            `json:"match_probability"`
	ConfidenceInterval   ConfidenceInterval `json:"confidence_interval"`
	Percentile           int                `json:"percentile"`
	ContributingFactors  Factors            `json:"contributing_factors"`
}

// Engine maps contributing factors to a Prediction
type Engine struct {
	cfg Config

	mu  sync.Mutex
	rng RandomSource
}

// NewEngine creates an engine. A nil rng uses the process-wide generator.
func NewEngine(cfg Config, rng RandomSource) *Engine {
	if rng == nil {
		rng = globalSource{}
	}
	return &Engine{cfg: cfg, rng: rng}
}

// Config returns the constants the engine was built with
func (e *Engine) Config() Config {
	return e.cfg
}

// WeightedScore is the weighted sum of the factors, each bounded to [0,100]
func (e *Engine) WeightedScore(f Factors) float64 {
	w := e.cfg.Weights
	return clamp(f.QuestionAccuracy, 0, 100)*w.QuestionAccuracy +
		clamp(f.ClinicalReasoning, 0, 100)*w.ClinicalReasoning +
		clamp(f.KnowledgeCoverage, 0, 100)*w.KnowledgeCoverage +
		clamp(f.SpeedEfficiency, 0, 100)*w.SpeedEfficiency +
		clamp(f.PerformanceTrend, 0, 100)*w.PerformanceTrend
}

// Project computes the prediction for f
func (e *Engine) Project(f Factors) Prediction {
	cfg := e.cfg
	span := float64(cfg.ScoreCeiling - cfg.ScoreFloor)

	step1 := e.clampScore(roundHalfUp(float64(cfg.ScoreFloor) + e.WeightedScore(f)/100*span))

	e.mu.Lock()
	r := e.rng.Float64()
	e.mu.Unlock()
	step2 := e.clampScore(step1 + roundHalfUp((r-cfg.Step2Bias)*cfg.Step2Spread))

	p1 := e.PassProbability(step1, cfg.Step1PassingScore)
	p2 := e.PassProbability(step2, cfg.Step2PassingScore)

	coverage := clamp(f.KnowledgeCoverage, 0, 100)
	match := p1*cfg.MatchWeights.Step1 + p2*cfg.MatchWeights.Step2 + coverage*cfg.MatchWeights.Coverage
	match = math.Min(cfg.MatchProbabilityCap, match)

	return Prediction{
		PredictedStep1Score:  step1,
		PredictedStep2Score:  step2,
		PassProbabilityStep1: roundTo(p1, 1),
		PassProbabilityStep2: roundTo(p2, 1),
		MatchProbability:     roundTo(match, 1),
		ConfidenceInterval: ConfidenceInterval{
			Low:  max(cfg.ScoreFloor, step1-cfg.ConfidenceBand),
			High: min(cfg.ScoreCeiling, step1+cfg.ConfidenceBand),
		},
		Percentile:          e.Percentile(step1),
		ContributingFactors: f.Rounded(),
	}
}

// PassProbability is a logistic curve centred on the passing score, in percent.
func (e *Engine) PassProbability(score, passing int) float64 {
	p := 100 / (1 + math.Exp(-e.cfg.PassSlope*float64(score-passing)))
	return clamp(p, e.cfg.PassProbabilityMin, e.cfg.PassProbabilityMax)
}

// TrendDirection compares the last two scores of a chronological history.
// ok is false when fewer than two scores exist.
func (e *Engine) TrendDirection(history []int) (Trend, bool) {
	if len(history) < 2 {
		return "", false
	}

	delta := float64(history[len(history)-1] - history[len(history)-2])
	switch {
	case delta > e.cfg.TrendThreshold:
		return TrendUp, true
	case delta < -e.cfg.TrendThreshold:
		return TrendDown, true
	default:
		return TrendStable, true
	}
}

func (e *Engine) clampScore(score int) int {
	return max(e.cfg.ScoreFloor, min(e.cfg.ScoreCeiling, score))
}

// roundHalfUp rounds .5 toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
