package model

import (
	"fmt"
	"math"

	"github.com/huangsam/tribal/core/algo"
	"github.com/huangsam/tribal/schema"
)

// design is the numeric form of a dataset as the sampler sees it.
type design struct {
	keys     []schema.RepositoryKey
	names    []string
	projects []string
	project  []int       // project index of each repository
	members  [][]int     // repository indexes of each project
	z        [][]float64 // standardized metrics, one row per repository
	y        []float64   // standardized outcome, NaN when missing
	missing  []int       // repositories whose outcome is imputed
	proxy    schema.ProxySource
	std      *Standardizer
}

// resolveProxy picks the outcome source for a dataset.
func resolveProxy(data *schema.Dataset, proxy schema.ProxySource) (schema.ProxySource, error) {
	labels := data.LabelCount()
	switch proxy {
	case schema.LabelProxy:
		if labels == 0 {
			return "", ErrNoLabels
		}
		return schema.LabelProxy, nil
	case schema.HeuristicProxy:
		return schema.HeuristicProxy, nil
	default:
		if labels > 0 {
			return schema.LabelProxy, nil
		}
		return schema.HeuristicProxy, nil
	}
}

func newDesign(data *schema.Dataset, opts Options) (*design, error) {
	proxy, err := resolveProxy(data, opts.Proxy)
	if err != nil {
		return nil, err
	}

	d := &design{
		projects: data.Projects(),
		proxy:    proxy,
		std:      FitStandardizer(data.Metrics),
	}
	projectIndex := make(map[string]int, len(d.projects))
	for i, p := range d.projects {
		projectIndex[p] = i
	}
	d.members = make([][]int, len(d.projects))

	raw := make([]float64, len(data.Metrics))
	for r, m := range data.Metrics {
		p := projectIndex[m.ProjectID]
		d.keys = append(d.keys, m.Key())
		d.names = append(d.names, m.Name)
		d.project = append(d.project, p)
		d.members[p] = append(d.members[p], r)
		d.z = append(d.z, d.std.Row(m))

		switch {
		case proxy == schema.HeuristicProxy:
			raw[r], _ = algo.HeuristicScore(m, opts.HeuristicWeights)
		case m.RiskProxy != nil:
			raw[r] = *m.RiskProxy
		default:
			raw[r] = math.NaN()
		}
	}

	d.std.Outcome = FitTransform(raw, false)
	d.y = make([]float64, len(raw))
	for r, v := range raw {
		if math.IsNaN(v) {
			d.y[r] = math.NaN()
			d.missing = append(d.missing, r)
			continue
		}
		d.y[r] = d.std.Outcome.Apply(v)
	}
	if len(d.missing) == len(d.y) {
		return nil, fmt.Errorf("no observed outcome for proxy %s: %w", proxy, ErrNoLabels)
	}
	return d, nil
}

// n returns the number of repositories.
func (d *design) n() int { return len(d.keys) }

// dim returns the size of the joint location block: mu, the weights and one
// offset per project.
func (d *design) dim() int { return 1 + schema.NumMetrics + len(d.projects) }
