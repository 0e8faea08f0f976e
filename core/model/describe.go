package model

import (
	"github.com/huangsam/tribal/schema"
)

// Placeholder identifiers used when describing the model without data.
const (
	ProjectPlaceholder    = "<project>"
	RepositoryPlaceholder = "<repository>"
)

// LabelBand is one risk label and the lowest index that earns it.
type LabelBand struct {
	Label string  `json:"label"`
	Min   float64 `json:"min_index"`
}

// Description is a data-free account of the model: its graph for one
// project holding one repository, its priors, sampler settings and link.
type Description struct {
	Outcome          string                       `json:"outcome"`
	Link             string                       `json:"link"`
	Proxy            schema.ProxySource           `json:"proxy"`
	Priors           Priors                       `json:"priors"`
	Sampler          Options                      `json:"sampler"`
	Bands            []LabelBand                  `json:"bands"`
	ExpectedSigns    map[schema.MetricKey]int     `json:"expected_signs"`
	HeuristicWeights map[schema.MetricKey]float64 `json:"heuristic_weights"`
	Nodes            []Node                       `json:"nodes"`
}

// Describe returns the description of the model configured by opts.
func Describe(opts Options) Description {
	graph := BuildGraph(
		[]string{ProjectPlaceholder},
		[]schema.RepositoryKey{{ProjectID: ProjectPlaceholder, RepositoryID: RepositoryPlaceholder}},
		opts.Priors,
	)

	signs := make(map[schema.MetricKey]int, schema.NumMetrics)
	for _, key := range schema.AllMetricKeys {
		signs[key] = schema.ExpectedWeightSign(key)
	}
	weights := opts.HeuristicWeights
	if len(weights) == 0 {
		weights = schema.GetDefaultWeights()
	}
	sampler := opts
	sampler.HeuristicWeights = nil

	return Description{
		Outcome: "standardized risk proxy: the risk_proxy label when present, else the weighted heuristic score",
		Link:    "risk_index = 100 * Phi(theta), averaged over draws",
		Proxy:   opts.Proxy,
		Priors:  opts.Priors,
		Sampler: sampler,
		Bands: []LabelBand{
			{Label: "Critical", Min: 80},
			{Label: "High", Min: 60},
			{Label: "Moderate", Min: 40},
			{Label: "Low", Min: 0},
		},
		ExpectedSigns:    signs,
		HeuristicWeights: weights,
		Nodes:            graph.Nodes,
	}
}
