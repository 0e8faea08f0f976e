package model

import (
	"math"

	"github.com/huangsam/tribal/schema"
	"gonum.org/v1/gonum/stat"
)

// minScale is the smallest standard deviation treated as variation.
const minScale = 1e-12

// Transform maps one raw column onto the standardized scale.
type Transform struct {
	Log    bool    `json:"log1p"`
	Center float64 `json:"center"`
	Scale  float64 `json:"scale"`
	// Constant is set when the column had no variation; Scale is then 1.
	Constant bool `json:"constant"`
}

// FitTransform learns a transform from the finite values in xs.
func FitTransform(xs []float64, log bool) Transform {
	t := Transform{Log: log, Scale: 1}
	vals := make([]float64, 0, len(xs))
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		if log {
			x = math.Log1p(x)
		}
		vals = append(vals, x)
	}
	if len(vals) == 0 {
		t.Constant = true
		return t
	}
	mean, sd := stat.MeanStdDev(vals, nil)
	t.Center = mean
	if len(vals) < 2 || !(sd >= minScale) {
		t.Constant = true
		return t
	}
	t.Scale = sd
	return t
}

// Apply standardizes one raw value.
func (t Transform) Apply(x float64) float64 {
	if t.Log {
		x = math.Log1p(x)
	}
	if t.Constant {
		return 0
	}
	return (x - t.Center) / t.Scale
}

// Invert maps a standardized value back to the raw scale.
func (t Transform) Invert(z float64) float64 {
	x := t.Center + z*t.Scale
	if t.Log {
		x = math.Expm1(x)
	}
	return x
}

// Standardizer is the fitted per-metric transform set. It is returned with
// every fit so that scores can be reproduced on new rows.
type Standardizer struct {
	Metrics map[schema.MetricKey]Transform `json:"metrics"`
	Outcome Transform                      `json:"outcome"`
}

// logScaled reports whether a metric is log1p-transformed before z-scoring.
func logScaled(key schema.MetricKey) bool {
	return key != schema.OpenIssueRatioKey
}

// FitStandardizer learns the metric transforms from the metrics table.
func FitStandardizer(rows []schema.RepositoryMetrics) *Standardizer {
	s := &Standardizer{Metrics: make(map[schema.MetricKey]Transform, schema.NumMetrics)}
	column := make([]float64, len(rows))
	for _, key := range schema.AllMetricKeys {
		for i, row := range rows {
			column[i] = row.Value(key)
		}
		s.Metrics[key] = FitTransform(column, logScaled(key))
	}
	return s
}

// Row returns the standardized metric vector of one repository in canonical order.
func (s *Standardizer) Row(m schema.RepositoryMetrics) []float64 {
	z := make([]float64, schema.NumMetrics)
	for k, key := range schema.AllMetricKeys {
		z[k] = s.Metrics[key].Apply(m.Value(key))
	}
	return z
}
