package scoring

import (
	"math"
	"time"
)

// TopicScore is the correct/total tally for one topic
type TopicScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Attempt is the aggregator's view of a completed attempt
type Attempt struct {
	TotalQuestions   int
	CorrectAnswers   int
	TimeTakenSeconds int
	TopicPerformance map[string]TopicScore
	CreatedAt        time.Time
}

// Factors are the five normalized 0-100 inputs to the projection
type Factors struct {
	QuestionAccuracy  float64 `json:"question_accuracy" yaml:"question_accuracy"`
	ClinicalReasoning float64 `json:"clinical_reasoning" yaml:"clinical_reasoning"`
	KnowledgeCoverage float64 `json:"knowledge_coverage" yaml:"knowledge_coverage"`
	SpeedEfficiency   float64 `json:"speed_efficiency" yaml:"speed_efficiency"`
	PerformanceTrend  float64 `json:"performance_trend" yaml:"performance_trend"`
}

// Rounded returns the factors rounded to whole numbers for reporting
func (f Factors) Rounded() Factors {
	return Factors{
		QuestionAccuracy:  math.Round(f.QuestionAccuracy),
		ClinicalReasoning: math.Round(f.ClinicalReasoning),
		KnowledgeCoverage: math.Round(f.KnowledgeCoverage),
		SpeedEfficiency:   math.Round(f.SpeedEfficiency),
		PerformanceTrend:  math.Round(f.PerformanceTrend),
	}
}

// Aggregate folds attempts (newest first) and the externally supplied coverage
// percent into contributing factors. A nil or non-positive coverage counts as
// unavailable. Missing history never fails; each factor falls back to its default.
func Aggregate(attempts []Attempt, coverage *float64, cfg Config) Factors {
	f := cfg.Defaults

	var totalQuestions, totalCorrect, totalSeconds int
	topics := make(map[string]TopicScore)
	for _, a := range attempts {
		totalQuestions += a.TotalQuestions
		totalCorrect += a.CorrectAnswers
		totalSeconds += a.TimeTakenSeconds
		for topic, ts := range a.TopicPerformance {
			acc := topics[topic]
			acc.Correct += ts.Correct
			acc.Total += ts.Total
			topics[topic] = acc
		}
	}

	if totalQuestions > 0 {
		f.QuestionAccuracy = clamp(100*float64(totalCorrect)/float64(totalQuestions), 0, 100)

		avgSeconds := float64(totalSeconds) / float64(totalQuestions)
		penalty := cfg.SpeedPenaltyPerSecond * math.Abs(avgSeconds-cfg.IdealSecondsPerQuestion)
		f.SpeedEfficiency = clamp(cfg.SpeedCeiling-penalty, cfg.SpeedFloor, cfg.SpeedCeiling)
	}

	if reasoning, ok := topicMean(topics); ok {
		f.ClinicalReasoning = reasoning
	}

	if coverage != nil && *coverage > 0 {
		f.KnowledgeCoverage = clamp(*coverage, 0, 100)
	}

	if trend, ok := performanceTrend(attempts, cfg); ok {
		f.PerformanceTrend = trend
	}

	return f
}

// topicMean is the unweighted mean of per-topic accuracy. Topics without
// questions are ignored.
func topicMean(topics map[string]TopicScore) (float64, bool) {
	var sum float64
	var n int
	for _, ts := range topics {
		if ts.Total <= 0 {
			continue
		}
		sum += 100 * float64(ts.Correct) / float64(ts.Total)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return clamp(sum/float64(n), 0, 100), true
}

func performanceTrend(attempts []Attempt, cfg Config) (float64, bool) {
	w := cfg.TrendWindow
	if len(attempts) < 2*w {
		return 0, false
	}

	recent, okRecent := meanAccuracy(attempts[:w])
	older, okOlder := meanAccuracy(attempts[w : 2*w])
	if !okRecent || !okOlder {
		return 0, false
	}

	return clamp(cfg.TrendBaseline+(recent-older), 0, 100), true
}

// meanAccuracy averages per-attempt accuracy, skipping empty attempts
func meanAccuracy(attempts []Attempt) (float64, bool) {
	var sum float64
	var n int
	for _, a := range attempts {
		if a.TotalQuestions <= 0 {
			continue
		}
		sum += 100 * float64(a.CorrectAnswers) / float64(a.TotalQuestions)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
