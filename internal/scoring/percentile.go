package scoring

import "math"

// Percentile places score within the reference normal distribution of exam
// scores, bounded to [PercentileMin, PercentileMax].
func (e *Engine) Percentile(score int) int {
	z := (float64(score) - e.cfg.PopulationMean) / e.cfg.PopulationSD
	cdf := (1 + math.Erf(z/math.Sqrt2)) * 50
	return int(math.Round(clamp(cdf, e.cfg.PercentileMin, e.cfg.PercentileMax)))
}
