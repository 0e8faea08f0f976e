package algo

import (
	"math"
	"testing"

	"github.com/huangsam/tribal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetrics() schema.RepositoryMetrics {
	return schema.RepositoryMetrics{
		ProjectID:           "Project_1",
		RepositoryID:        "Repo_1",
		DaysSinceLastCommit: 30,
		AgeDays:             900,
		CommitFrequency:     4,
		OpenIssueRatio:      0.25,
		PRResolutionDays:    3,
		LanguageCount:       3,
		AvgCommitsPerMonth:  17,
	}
}

// TestGini tests the Gini coefficient calculation.
func TestGini(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty slice", []float64{}, 0.0},
		{"perfect equality", []float64{1, 1, 1, 1}, 0.0},
		{"perfect inequality", []float64{0, 0, 0, 10}, 0.75},
		{"moderate inequality", []float64{1, 2, 3, 4}, 0.25},
		{"single value", []float64{5}, 0.0},
		{"all zeros", []float64{0, 0, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Gini(tt.values), 0.001)
		})
	}
}

func TestNormalizeMetricDirection(t *testing.T) {
	active := sampleMetrics()
	active.CommitFrequency = 18
	active.AvgCommitsPerMonth = 75
	active.DaysSinceLastCommit = 1

	dormant := sampleMetrics()
	dormant.CommitFrequency = 0.1
	dormant.AvgCommitsPerMonth = 0.5
	dormant.DaysSinceLastCommit = 300

	for _, key := range []schema.MetricKey{schema.CommitFrequencyKey, schema.AvgCommitsPerMonthKey, schema.DaysSinceLastCommitKey} {
		assert.Less(t, NormalizeMetric(active, key), NormalizeMetric(dormant, key), key)
	}

	saturated := sampleMetrics()
	saturated.PRResolutionDays = 1e6
	saturated.LanguageCount = 40
	assert.Equal(t, 1.0, NormalizeMetric(saturated, schema.PRResolutionDaysKey))
	assert.Equal(t, 1.0, NormalizeMetric(saturated, schema.LanguageCountKey))
	assert.Equal(t, 0.0, NormalizeMetric(saturated, "unknown"))
}

func TestHeuristicScoreBreakdown(t *testing.T) {
	m := sampleMetrics()
	score, breakdown := HeuristicScore(m, nil)

	require.Len(t, breakdown, schema.NumMetrics)
	sum := 0.0
	for _, v := range breakdown {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, score, sum, 1e-9)
	assert.True(t, score >= 0 && score <= 100)
}

func TestHeuristicScoreWithCustomWeights(t *testing.T) {
	m := sampleMetrics()
	defaultScore, _ := HeuristicScore(m, nil)

	custom := map[schema.MetricKey]float64{
		schema.OpenIssueRatioKey: 0.8,
		schema.AgeDaysKey:        0.2,
	}
	customScore, breakdown := HeuristicScore(m, custom)

	assert.NotEqual(t, defaultScore, customScore)
	assert.Len(t, breakdown, 2)
	assert.InDelta(t, 0.8*25, breakdown[schema.OpenIssueRatioKey], 1e-9)
}

func TestHeuristicScoreOrdersRisk(t *testing.T) {
	healthy := schema.RepositoryMetrics{
		DaysSinceLastCommit: 0, AgeDays: 60, CommitFrequency: 25,
		OpenIssueRatio: 0, PRResolutionDays: 0.2, LanguageCount: 1, AvgCommitsPerMonth: 100,
	}
	abandoned := schema.RepositoryMetrics{
		DaysSinceLastCommit: 700, AgeDays: 4000, CommitFrequency: 0,
		OpenIssueRatio: 1, PRResolutionDays: 90, LanguageCount: 9, AvgCommitsPerMonth: 0,
	}
	low, _ := HeuristicScore(healthy, nil)
	high, _ := HeuristicScore(abandoned, nil)

	assert.Less(t, low, 15.0)
	assert.InDelta(t, 100.0, high, 1e-9)
	assert.Equal(t, "Low", GetPlainLabel(low))
	assert.Equal(t, "Critical", GetPlainLabel(high))
}

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		index    float64
		expected string
	}{
		{100, "Critical"},
		{80, "Critical"},
		{79.9, "High"},
		{60, "High"},
		{45, "Moderate"},
		{39.99, "Low"},
		{math.Inf(-1), "Low"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, GetPlainLabel(tt.index))
	}
}

// BenchmarkHeuristicScore benchmarks score calculation.
func BenchmarkHeuristicScore(b *testing.B) {
	m := sampleMetrics()
	weights := schema.GetDefaultWeights()
	for b.Loop() {
		HeuristicScore(m, weights)
	}
}
