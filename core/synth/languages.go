package synth

import (
	"strings"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// catalog is the resolved language table: normalized popularity and a dense
// affinity matrix indexed by catalog position.
type catalog struct {
	names      []string
	popularity []float64
	affinity   [][]float64
}

func newCatalog(cfg Config) *catalog {
	n := len(cfg.Languages)
	c := &catalog{
		names:      make([]string, n),
		popularity: make([]float64, n),
		affinity:   make([][]float64, n),
	}
	index := make(map[string]int, n)
	total := 0.0
	for i, lang := range cfg.Languages {
		c.names[i] = lang.Name
		c.popularity[i] = lang.Popularity
		c.affinity[i] = make([]float64, n)
		index[strings.ToLower(lang.Name)] = i
		total += lang.Popularity
	}
	for i := range c.popularity {
		c.popularity[i] /= total
	}
	for from, row := range cfg.Affinity {
		fi := index[strings.ToLower(from)]
		for to, v := range row {
			c.affinity[fi][index[strings.ToLower(to)]] = v
		}
	}
	return c
}

// extraWeights returns the selection weight of every language given the
// languages already chosen. Chosen languages get weight zero.
func (c *catalog) extraWeights(selected []int, bg float64) []float64 {
	weights := make([]float64, len(c.names))
	chosen := make([]bool, len(c.names))
	for _, s := range selected {
		chosen[s] = true
	}
	for l := range c.names {
		if chosen[l] {
			continue
		}
		miss := 1.0
		penalty := 1.0
		for _, s := range selected {
			a := c.affinity[s][l]
			miss *= 1 - max(a, 0)
			penalty *= 1 + min(a, 0)
		}
		weights[l] = clamp01(1-miss+bg*c.popularity[l]) * penalty
	}
	return weights
}

// selectLanguages draws a primary language by popularity and then extra
// languages without replacement. The primary is always first.
func (c *catalog) selectLanguages(state *State, maxExtra int, bg float64) []int {
	w := sampleuv.NewWeighted(c.popularity, state.Source())
	primary, _ := w.Take()
	selected := []int{primary}

	for len(selected) <= maxExtra {
		weights := c.extraWeights(selected, bg)
		stay := 1.0
		for _, a := range weights {
			stay *= 1 - a
		}
		if !state.Bernoulli(1 - stay) {
			break
		}
		w.ReweightAll(weights)
		next, ok := w.Take()
		if !ok {
			break
		}
		selected = append(selected, next)
	}
	return selected
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
