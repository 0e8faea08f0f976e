// Package model fits the hierarchical risk model: a linear-Gaussian latent
// score with a global intercept, learned metric weights, partially pooled
// project offsets and repository-level noise, sampled by blocked Gibbs.
package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/huangsam/tribal/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is a completed fit.
type Result struct {
	RunID        string
	Proxy        schema.ProxySource
	Options      Options
	Iterations   int // per chain, warmup included
	Standardizer *Standardizer
	Graph        *Graph
	Posterior    *Posterior

	Repositories []schema.RepositoryEstimate
	Projects     []schema.ProjectEstimate
	Weights      []schema.WeightEstimate
	Diagnostics  []schema.ParameterDiagnostic
	Warnings     []string

	design *design
}

// Fit runs the sampler on a dataset and summarizes the posterior.
// It returns a *ConvergenceError when the diagnostics still fail once
// MaxIterations is reached.
func Fit(ctx context.Context, data *schema.Dataset, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if data == nil || len(data.Metrics) == 0 {
		return nil, ErrNoRepositories
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	d, err := newDesign(data, opts)
	if err != nil {
		return nil, err
	}
	graph := BuildGraph(d.projects, d.keys, opts.Priors)
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameter graph: %w", err)
	}

	logger := zap.L().With(zap.String("proxy", string(d.proxy)))
	for _, key := range schema.AllMetricKeys {
		if d.std.Metrics[key].Constant {
			logger.Warn("Metric has no variation and standardizes to zero", zap.String("metric", string(key)))
		}
	}
	logger.Info("Fitting risk model",
		zap.Int("repositories", d.n()),
		zap.Int("projects", len(d.projects)),
		zap.Int("imputed", len(d.missing)),
		zap.Int("chains", opts.Chains))

	chains := make([]*chain, opts.Chains)
	for i := range chains {
		chains[i] = newChain(i, d, opts)
	}

	runID := uuid.NewString()
	iters := opts.Warmup + opts.Draws
	done := 0
	for {
		if err := runChains(ctx, chains, iters, opts.Warmup); err != nil {
			return nil, err
		}
		done += iters

		post := newPosterior(runID, graph, d, chains)
		diags, issues := diagnose(graph, post, opts)
		if len(issues) == 0 {
			res := &Result{
				RunID:        runID,
				Proxy:        d.proxy,
				Options:      opts,
				Iterations:   done,
				Standardizer: d.std,
				Graph:        graph,
				Posterior:    post,
				Diagnostics:  diags,
				design:       d,
			}
			res.summarizeRepositories()
			res.summarizeProjects()
			res.summarizeWeights()
			for _, w := range res.Warnings {
				logger.Warn(w)
			}
			logger.Info("Fit converged", zap.String("run_id", runID), zap.Int("iterations", done))
			return res, nil
		}

		if done >= opts.MaxIterations {
			return nil, &ConvergenceError{
				Iterations: done,
				MaxRhat:    opts.MaxRhat,
				MinESS:     opts.MinESS,
				Issues:     issues,
			}
		}
		iters = min(opts.Draws, opts.MaxIterations-done)
		logger.Debug("Extending chains",
			zap.Int("failing", len(issues)),
			zap.Int("iterations", done),
			zap.Int("extra", iters))
	}
}

// runChains advances every chain concurrently. Each goroutine owns one chain.
func runChains(ctx context.Context, chains []*chain, iters, warmup int) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, c := range chains {
		g.Go(func() error {
			return c.run(gCtx, iters, warmup)
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var numErr *NumericalError
		if errors.As(err, &numErr) {
			return err
		}
		return fmt.Errorf("sampling failed: %w", err)
	}
	return nil
}

// Summary returns the serializable view of the fit.
func (r *Result) Summary() schema.FitSummary {
	return schema.FitSummary{
		RunID:        r.RunID,
		Proxy:        r.Proxy,
		Chains:       r.Posterior.NumChains(),
		Iterations:   r.Iterations,
		Draws:        r.Posterior.NumDraws(),
		CredibleMass: r.Options.CredibleMass,
		Repositories: r.Repositories,
		Projects:     r.Projects,
		Weights:      r.Weights,
		Diagnostics:  r.Diagnostics,
		Warnings:     r.Warnings,
	}
}

// Score returns the posterior mean latent risk of a new metrics row under a
// fitted model, using the project offset when the project is known.
func (r *Result) Score(m schema.RepositoryMetrics) float64 {
	z := r.Standardizer.Row(m)
	mu, _ := r.Posterior.Param(MuParam)
	score := meanOf(mu, identity)
	if alpha, ok := r.Posterior.Param(AlphaParam(m.ProjectID)); ok {
		score += meanOf(alpha, identity)
	}
	for k, key := range schema.AllMetricKeys {
		w, _ := r.Posterior.Param(WeightParam(key))
		score += meanOf(w, identity) * z[k]
	}
	return score
}
