package synth

import (
	"math"

	"github.com/huangsam/tribal/schema"
	"gonum.org/v1/gonum/stat"
)

// attachLabels sets the synthetic risk proxy on the rows. effects holds the
// latent activity effect of each row's project, aligned with rows.
func attachLabels(state *State, cfg LabelConfig, rows []schema.RepositoryMetrics, effects []float64) {
	if !cfg.Enabled || len(rows) == 0 {
		return
	}

	signal := make([]float64, len(rows))
	column := make([]float64, len(rows))
	for _, key := range schema.AllMetricKeys {
		w := cfg.Weights[key]
		if w == 0 {
			continue
		}
		for i := range rows {
			column[i] = math.Log1p(rows[i].Value(key))
		}
		mean, sd := stat.MeanStdDev(column, nil)
		if !(sd > 1e-12) {
			continue
		}
		for i := range rows {
			signal[i] += w * (column[i] - mean) / sd
		}
	}

	for i := range rows {
		eps := state.Normal(0, 1)
		labeled := state.Bernoulli(cfg.Coverage)
		if !labeled {
			rows[i].RiskProxy = nil
			continue
		}
		score := cfg.Center + cfg.Scale*(signal[i]-cfg.ProjectWeight*effects[i]+cfg.Noise*eps)
		score = min(max(score, 0), 100)
		rows[i].RiskProxy = &score
	}
}
