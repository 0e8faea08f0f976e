// Package algo has the scoring and ranking helpers shared by the model and the outputs.
package algo

import (
	"math"

	"github.com/huangsam/tribal/schema"
)

// Tunable maxima to normalize metrics.
const (
	maxStaleDays  = 365.0  // a year without commits saturates
	maxAgeDays    = 3650.0 // ~10 years
	maxFrequency  = 20.0   // commits per week beyond this saturate
	maxPRDays     = 30.0   // a month to resolve a pull request saturates
	maxLanguages  = 8.0    // language sprawl beyond this saturates
	maxMonthlyAvg = 80.0   // commits per month beyond this saturate
)

// NormalizeMetric maps a raw metric to [0,1] where 1 is the risky end.
// Activity metrics are inverted so that low activity scores high.
func NormalizeMetric(m schema.RepositoryMetrics, key schema.MetricKey) float64 {
	switch key {
	case schema.DaysSinceLastCommitKey:
		return clamp01(math.Log1p(m.DaysSinceLastCommit) / math.Log1p(maxStaleDays))
	case schema.AgeDaysKey:
		return clamp01(math.Log1p(m.AgeDays) / math.Log1p(maxAgeDays))
	case schema.CommitFrequencyKey:
		return 1 - clamp01(m.CommitFrequency/maxFrequency)
	case schema.OpenIssueRatioKey:
		return clamp01(m.OpenIssueRatio)
	case schema.PRResolutionDaysKey:
		return clamp01(math.Log1p(m.PRResolutionDays) / math.Log1p(maxPRDays))
	case schema.LanguageCountKey:
		return clamp01(float64(m.LanguageCount-1) / (maxLanguages - 1))
	case schema.AvgCommitsPerMonthKey:
		return 1 - clamp01(m.AvgCommitsPerMonth/maxMonthlyAvg)
	default:
		return 0
	}
}

// HeuristicScore calculates a repository's knowledge-risk score (0-100) as a
// weighted sum of saturating, normalized metrics. The breakdown holds each
// metric's contribution in score points. Nil weights mean the defaults.
func HeuristicScore(m schema.RepositoryMetrics, weights map[schema.MetricKey]float64) (float64, map[schema.MetricKey]float64) {
	if weights == nil {
		weights = schema.GetDefaultWeights()
	}
	breakdown := make(map[schema.MetricKey]float64, len(weights))
	var raw float64
	for _, key := range schema.AllMetricKeys {
		w, ok := weights[key]
		if !ok {
			continue
		}
		contribution := w * NormalizeMetric(m, key)
		breakdown[key] = contribution * 100.0
		raw += contribution
	}
	return clamp01(raw) * 100.0, breakdown
}

// Gini calculates the Gini coefficient for a set of values.
// It ranges from 0 (perfect equality) to 1 (perfect inequality) and is used
// to measure how concentrated a project's code is across languages.
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}

	var diffSum float64
	for i := range n {
		for j := range n {
			diffSum += math.Abs(values[i] - values[j])
		}
	}

	g := diffSum / (2 * float64(n*n) * mean)
	return clamp01(g)
}

// GetPlainLabel returns the risk label for a 0-100 index without color.
func GetPlainLabel(index float64) string {
	switch {
	case index >= 80:
		return "Critical"
	case index >= 60:
		return "High"
	case index >= 40:
		return "Moderate"
	default:
		return "Low"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
