package scoring

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func uniform(v float64) Factors {
	return Factors{QuestionAccuracy: v, ClinicalReasoning: v, KnowledgeCoverage: v, SpeedEfficiency: v, PerformanceTrend: v}
}

func TestEngine_ProjectDefaults(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEngine(cfg, fixedSource(0.3))

	p := e.Project(cfg.Defaults)

	assert.Equal(t, 263, p.PredictedStep1Score)
	assert.Equal(t, 263, p.PredictedStep2Score)
	assert.Equal(t, 99.9, p.PassProbabilityStep1)
	assert.Equal(t, 99.9, p.PassProbabilityStep2)
	assert.Equal(t, 84.9, p.MatchProbability)
	assert.Equal(t, ConfidenceInterval{Low: 248, High: 278}, p.ConfidenceInterval)
	assert.Equal(t, 94, p.Percentile)
	assert.Equal(t, cfg.Defaults, p.ContributingFactors)
}

func TestEngine_Step2Offset(t *testing.T) {
	tests := []struct {
		name string
		r    float64
		want int
	}{
		{name: "lowest draw", r: 0, want: 260},
		{name: "half rounds up", r: 0.25, want: 263},
		{name: "mean shift", r: 0.5, want: 265},
		{name: "high draw", r: 0.99, want: 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultConfig(), fixedSource(tt.r))
			p := e.Project(DefaultConfig().Defaults)
			assert.Equal(t, tt.want, p.PredictedStep2Score)
		})
	}
}

func TestEngine_ScoreBounds(t *testing.T) {
	tests := []struct {
		name      string
		factors   Factors
		r         float64
		wantStep1 int
		wantStep2 int
		wantCI    ConfidenceInterval
	}{
		{
			name:      "all zero",
			factors:   uniform(0),
			r:         0,
			wantStep1: 196,
			wantStep2: 196,
			wantCI:    ConfidenceInterval{Low: 196, High: 211},
		},
		{
			name:      "all hundred",
			factors:   uniform(100),
			r:         0.99,
			wantStep1: 300,
			wantStep2: 300,
			wantCI:    ConfidenceInterval{Low: 285, High: 300},
		},
		{
			name:      "out of range inputs are bounded",
			factors:   uniform(400),
			r:         0.5,
			wantStep1: 300,
			wantStep2: 300,
			wantCI:    ConfidenceInterval{Low: 285, High: 300},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultConfig(), fixedSource(tt.r))
			p := e.Project(tt.factors)
			assert.Equal(t, tt.wantStep1, p.PredictedStep1Score)
			assert.Equal(t, tt.wantStep2, p.PredictedStep2Score)
			assert.Equal(t, tt.wantCI, p.ConfidenceInterval)
		})
	}
}

func TestEngine_InvariantsOverSeededDraws(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEngine(cfg, rand.New(rand.NewPCG(7, 11)))

	for v := 0.0; v <= 100; v += 2.5 {
		p := e.Project(Factors{QuestionAccuracy: v, ClinicalReasoning: 100 - v, KnowledgeCoverage: v / 2, SpeedEfficiency: 40 + v/2, PerformanceTrend: v})

		assert.GreaterOrEqual(t, p.PredictedStep1Score, 196)
		assert.LessOrEqual(t, p.PredictedStep1Score, 300)
		assert.GreaterOrEqual(t, p.PredictedStep2Score, 196)
		assert.LessOrEqual(t, p.PredictedStep2Score, 300)
		assert.LessOrEqual(t, p.ConfidenceInterval.Low, p.PredictedStep1Score)
		assert.GreaterOrEqual(t, p.ConfidenceInterval.High, p.PredictedStep1Score)
		if p.PredictedStep1Score-15 >= 196 && p.PredictedStep1Score+15 <= 300 {
			assert.Equal(t, 30, p.ConfidenceInterval.High-p.ConfidenceInterval.Low)
		}
		assert.GreaterOrEqual(t, p.PassProbabilityStep1, 0.1)
		assert.LessOrEqual(t, p.PassProbabilityStep1, 99.9)
		assert.GreaterOrEqual(t, p.MatchProbability, 0.0)
		assert.LessOrEqual(t, p.MatchProbability, 99.0)
		assert.GreaterOrEqual(t, p.Percentile, 1)
		assert.LessOrEqual(t, p.Percentile, 99)
	}
}

func TestEngine_SeededSourceIsReproducible(t *testing.T) {
	a := NewEngine(DefaultConfig(), rand.New(rand.NewPCG(42, 1)))
	b := NewEngine(DefaultConfig(), rand.New(rand.NewPCG(42, 1)))

	for i := 0; i < 20; i++ {
		require.Equal(t, a.Project(uniform(55)), b.Project(uniform(55)))
	}
}

func TestEngine_PassProbability(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	assert.InDelta(t, 50, e.PassProbability(196, 196), 1e-9)
	assert.InDelta(t, 50, e.PassProbability(209, 209), 1e-9)
	assert.InDelta(t, 83.889105, e.PassProbability(220, 209), 1e-6)
	assert.Equal(t, 99.9, e.PassProbability(300, 196))
	assert.Equal(t, 0.1, e.PassProbability(100, 209))

	prev := 0.0
	for score := 196; score <= 300; score++ {
		p := e.PassProbability(score, 209)
		assert.GreaterOrEqual(t, p, prev, "score %d", score)
		prev = p
	}
}

func TestEngine_MatchProbabilityCap(t *testing.T) {
	e := NewEngine(DefaultConfig(), fixedSource(0.5))

	p := e.Project(uniform(100))

	// 99.9*0.4 + 99.9*0.3 + 100*0.3 exceeds the cap
	assert.Equal(t, 99.0, p.MatchProbability)
}

func TestEngine_TrendDirection(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	tests := []struct {
		name    string
		history []int
		want    Trend
		ok      bool
	}{
		{name: "no history", history: nil, ok: false},
		{name: "single snapshot", history: []int{240}, ok: false},
		{name: "up", history: []int{230, 240, 243}, want: TrendUp, ok: true},
		{name: "down", history: []int{250, 247}, want: TrendDown, ok: true},
		{name: "stable at threshold", history: []int{250, 252}, want: TrendStable, ok: true},
		{name: "stable at negative threshold", history: []int{250, 248}, want: TrendStable, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.TrendDirection(tt.history)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3, roundHalfUp(2.5))
	assert.Equal(t, -2, roundHalfUp(-2.5))
	assert.Equal(t, -3, roundHalfUp(-2.6))
	assert.Equal(t, 0, roundHalfUp(math.Copysign(0, -1)))
}

func TestEngine_Step1NonDecreasingInEachFactor(t *testing.T) {
	e := NewEngine(DefaultConfig(), fixedSource(0.3))

	setters := map[string]func(f *Factors, v float64){
		"questionAccuracy":  func(f *Factors, v float64) { f.QuestionAccuracy = v },
		"clinicalReasoning": func(f *Factors, v float64) { f.ClinicalReasoning = v },
		"knowledgeCoverage": func(f *Factors, v float64) { f.KnowledgeCoverage = v },
		"speedEfficiency":   func(f *Factors, v float64) { f.SpeedEfficiency = v },
		"performanceTrend":  func(f *Factors, v float64) { f.PerformanceTrend = v },
	}

	for name, set := range setters {
		t.Run(name, func(t *testing.T) {
			prev := 0
			for v := 0.0; v <= 100; v++ {
				f := uniform(60)
				set(&f, v)
				score := e.Project(f).PredictedStep1Score
				assert.GreaterOrEqual(t, score, prev, "factor value %v", v)
				prev = score
			}
		})
	}
}
