package model

import (
	"github.com/huangsam/tribal/schema"
	"gonum.org/v1/gonum/stat/distuv"
)

// Posterior holds every kept draw of every chain. It is the full sample
// artifact: summaries are computed from it, and it can be exported so that
// other tools can recompute any statistic without refitting.
type Posterior struct {
	RunID  string
	Params []string // stochastic parameters, in trace column order

	chains   [][][]float64 // [chain][draw][param]
	shrink   [][][]float64 // [chain][draw][project]
	unpooled [][][]float64 // [chain][draw][project]
	index    map[string]int
	d        *design
}

func newPosterior(runID string, graph *Graph, d *design, chains []*chain) *Posterior {
	p := &Posterior{
		RunID:  runID,
		Params: graph.Stochastic(),
		index:  make(map[string]int),
		d:      d,
	}
	for i, name := range p.Params {
		p.index[name] = i
	}
	for _, c := range chains {
		p.chains = append(p.chains, c.trace)
		p.shrink = append(p.shrink, c.shrink)
		p.unpooled = append(p.unpooled, c.unpooled)
	}
	return p
}

// NumChains returns the number of chains.
func (p *Posterior) NumChains() int { return len(p.chains) }

// NumDraws returns the number of kept draws per chain.
func (p *Posterior) NumDraws() int {
	if len(p.chains) == 0 {
		return 0
	}
	return len(p.chains[0])
}

// Param returns the draws of a stochastic parameter, one slice per chain.
func (p *Posterior) Param(name string) ([][]float64, bool) {
	col, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.column(func(row []float64, _, _ int) float64 { return row[col] }), true
}

// Theta returns the draws of repository r's latent risk.
func (p *Posterior) Theta(r int) [][]float64 {
	return p.column(func(row []float64, _, _ int) float64 { return p.theta(row, r) })
}

// Rho returns the draws of project j's risk, mu + alpha_j.
func (p *Posterior) Rho(j int) [][]float64 {
	return p.column(func(row []float64, _, _ int) float64 { return row[muCol] + row[alphaCol+j] })
}

// Shrinkage returns, per draw, the weight of project j's own evidence.
func (p *Posterior) Shrinkage(j int) [][]float64 {
	return p.column(func(_ []float64, c, d int) float64 { return p.shrink[c][d][j] })
}

// Unpooled returns, per draw, project j's mean of y - w.z.
func (p *Posterior) Unpooled(j int) [][]float64 {
	return p.column(func(_ []float64, c, d int) float64 { return p.unpooled[c][d][j] })
}

func (p *Posterior) theta(row []float64, r int) float64 {
	t := row[muCol] + row[alphaCol+p.d.project[r]]
	for k, z := range p.d.z[r] {
		t += row[weightCol+k] * z
	}
	return t
}

func (p *Posterior) column(value func(row []float64, chain, draw int) float64) [][]float64 {
	out := make([][]float64, len(p.chains))
	for c, rows := range p.chains {
		out[c] = make([]float64, len(rows))
		for d, row := range rows {
			out[c][d] = value(row, c, d)
		}
	}
	return out
}

// Each calls fn for every draw of every stochastic and derived parameter in
// long format, chain by chain and draw by draw. It stops at the first error.
func (p *Posterior) Each(fn func(schema.PosteriorSample) error) error {
	for c, rows := range p.chains {
		for d, row := range rows {
			emit := func(name string, v float64) error {
				return fn(schema.PosteriorSample{RunID: p.RunID, Chain: c, Draw: d, Parameter: name, Value: v})
			}
			for i, name := range p.Params {
				if err := emit(name, row[i]); err != nil {
					return err
				}
			}
			for j, project := range p.d.projects {
				if err := emit(RhoParam(project), row[muCol]+row[alphaCol+j]); err != nil {
					return err
				}
			}
			for r, key := range p.d.keys {
				if err := emit(ThetaParam(key), p.theta(row, r)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Samples returns the whole posterior in long format.
func (p *Posterior) Samples() []schema.PosteriorSample {
	size := p.NumChains() * p.NumDraws() * (len(p.Params) + len(p.d.projects) + len(p.d.keys))
	out := make([]schema.PosteriorSample, 0, size)
	_ = p.Each(func(s schema.PosteriorSample) error {
		out = append(out, s)
		return nil
	})
	return out
}

// flatten concatenates per-chain draws.
func flatten(chains [][]float64) []float64 {
	n := 0
	for _, c := range chains {
		n += len(c)
	}
	out := make([]float64, 0, n)
	for _, c := range chains {
		out = append(out, c...)
	}
	return out
}

// probit maps a latent score to the 0-100 risk index.
func probit(v float64) float64 {
	return 100 * distuv.UnitNormal.CDF(v)
}
