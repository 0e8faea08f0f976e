package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/huangsam/tribal/core/algo"
	"github.com/huangsam/tribal/schema"
	"gonum.org/v1/gonum/stat"
)

// Summarize reduces per-chain draws to a mean, sd and central credible interval.
func Summarize(chains [][]float64, mass float64) schema.Interval {
	xs := flatten(chains)
	if len(xs) == 0 {
		return schema.Interval{Mean: math.NaN(), SD: math.NaN(), Lower: math.NaN(), Upper: math.NaN()}
	}
	sort.Float64s(xs)
	mean, sd := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		sd = 0
	}
	tail := (1 - mass) / 2
	return schema.Interval{
		Mean:  mean,
		SD:    sd,
		Lower: stat.Quantile(tail, stat.Empirical, xs, nil),
		Upper: stat.Quantile(1-tail, stat.Empirical, xs, nil),
	}
}

// meanOf averages a function of every draw.
func meanOf(chains [][]float64, f func(float64) float64) float64 {
	sum, n := 0.0, 0
	for _, c := range chains {
		for _, v := range c {
			sum += f(v)
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func identity(v float64) float64 { return v }

func (r *Result) summarizeRepositories() {
	post, d := r.Posterior, r.design
	imputed := make(map[int]bool, len(d.missing))
	for _, i := range d.missing {
		imputed[i] = true
	}
	weights := make([]float64, schema.NumMetrics)
	for k, key := range schema.AllMetricKeys {
		draws, _ := post.Param(WeightParam(key))
		weights[k] = meanOf(draws, identity)
	}
	r.Repositories = make([]schema.RepositoryEstimate, d.n())
	for i, key := range d.keys {
		draws := post.Theta(i)
		iv := Summarize(draws, r.Options.CredibleMass)
		proxy := d.y[i]
		if imputed[i] {
			proxy = iv.Mean
		}
		index := meanOf(draws, probit)
		r.Repositories[i] = schema.RepositoryEstimate{
			ProjectID:    key.ProjectID,
			RepositoryID: key.RepositoryID,
			Name:         d.names[i],
			RiskMean:     iv.Mean,
			RiskSD:       iv.SD,
			RiskLowerCI:  iv.Lower,
			RiskUpperCI:  iv.Upper,
			RiskIndex:    index,
			Label:        algo.GetPlainLabel(index),
			Proxy:        proxy,
			Imputed:      imputed[i],
			Drivers:      topDrivers(weights, d.z[i], maxDrivers),
		}
	}
}

// maxDrivers bounds the drivers reported per repository.
const maxDrivers = 3

// topDrivers returns the metrics with the largest positive w_k*z_k, strongest first.
func topDrivers(weights, z []float64, n int) []schema.MetricKey {
	type contribution struct {
		key   schema.MetricKey
		value float64
	}
	var parts []contribution
	for k, key := range schema.AllMetricKeys {
		if v := weights[k] * z[k]; v > 0 {
			parts = append(parts, contribution{key, v})
		}
	}
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].value > parts[j].value })
	var out []schema.MetricKey
	for _, p := range parts[:min(n, len(parts))] {
		out = append(out, p.key)
	}
	return out
}

func (r *Result) summarizeProjects() {
	post, d := r.Posterior, r.design
	mu, _ := post.Param(MuParam)
	population := meanOf(mu, identity)
	r.Projects = make([]schema.ProjectEstimate, len(d.projects))
	for j, project := range d.projects {
		draws := post.Rho(j)
		iv := Summarize(draws, r.Options.CredibleMass)
		index := meanOf(draws, probit)
		unpooled := meanOf(post.Unpooled(j), identity)
		shrinkage := meanOf(post.Shrinkage(j), identity)
		r.Projects[j] = schema.ProjectEstimate{
			ProjectID:      project,
			Repositories:   len(d.members[j]),
			RiskMean:       pooledMean(population, unpooled, shrinkage),
			RiskSD:         iv.SD,
			RiskLowerCI:    iv.Lower,
			RiskUpperCI:    iv.Upper,
			RiskIndex:      index,
			Label:          algo.GetPlainLabel(index),
			PopulationMean: population,
			UnpooledMean:   unpooled,
			Shrinkage:      shrinkage,
		}
	}
}

// pooledMean moves a project from the population mean toward its own
// evidence by the posterior mean shrinkage. For shrinkage in (0,1) it lies
// strictly between the two means whenever they differ.
func pooledMean(population, unpooled, shrinkage float64) float64 {
	return population + shrinkage*(unpooled-population)
}

func (r *Result) summarizeWeights() {
	r.Weights = make([]schema.WeightEstimate, 0, schema.NumMetrics)
	for _, key := range schema.AllMetricKeys {
		draws, _ := r.Posterior.Param(WeightParam(key))
		iv := Summarize(draws, r.Options.CredibleMass)
		w := schema.WeightEstimate{
			Metric:       key,
			Mean:         iv.Mean,
			SD:           iv.SD,
			Lower:        iv.Lower,
			Upper:        iv.Upper,
			ExpectedSign: schema.ExpectedWeightSign(key),
		}
		w.Status = signStatus(iv, w.ExpectedSign)
		if w.Status == schema.SignContradicted {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"weight for %s is %+.3f [%.3f, %.3f], opposite to its expected sign",
				key, iv.Mean, iv.Lower, iv.Upper))
		}
		r.Weights = append(r.Weights, w)
	}
}

// signStatus compares a weight's credible interval with its expected sign.
func signStatus(iv schema.Interval, expected int) schema.SignStatus {
	if expected == 0 {
		return schema.SignUnspecified
	}
	switch {
	case iv.Lower > 0:
		if expected > 0 {
			return schema.SignConfirmed
		}
		return schema.SignContradicted
	case iv.Upper < 0:
		if expected < 0 {
			return schema.SignConfirmed
		}
		return schema.SignContradicted
	default:
		return schema.SignInconclusive
	}
}

// diagnose computes R-hat and ESS for every stochastic node of the graph.
func diagnose(graph *Graph, post *Posterior, opts Options) ([]schema.ParameterDiagnostic, []ParameterIssue) {
	var diags []schema.ParameterDiagnostic
	var issues []ParameterIssue
	for _, node := range graph.Filter(Stochastic) {
		draws, _ := post.Param(node.Name)
		rhat := SplitRhat(draws)
		ess := EffectiveSampleSize(draws)
		ok := rhat <= opts.MaxRhat && ess >= opts.MinESS
		diags = append(diags, schema.ParameterDiagnostic{
			Parameter: node.Name,
			Level:     node.Level,
			Rhat:      rhat,
			ESS:       ess,
			Converged: ok,
		})
		if !ok {
			issues = append(issues, ParameterIssue{
				Parameter: node.Name,
				Level:     node.Level,
				Project:   node.Project,
				Rhat:      rhat,
				ESS:       ess,
			})
		}
	}
	return diags, issues
}
