package core

import (
	"context"
	"fmt"

	"github.com/huangsam/tribal/core/algo"
	"github.com/huangsam/tribal/core/model"
	"github.com/huangsam/tribal/core/synth"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/internal/datasource"
	"github.com/huangsam/tribal/internal/fixture"
	"github.com/huangsam/tribal/internal/outwriter"
	"github.com/huangsam/tribal/schema"
	"go.uber.org/zap"
)

// datasetSource picks where a fit reads its data from:
//   - --usage and --metrics files when both are set;
//   - a --usage file alone, completed with synthesized metrics;
//   - the fixture store topology when a fixture backend is configured;
//   - the generator otherwise.
//
// The returned close func releases the fixture store, if one was opened.
func datasetSource(cfg *contract.Config) (contract.DatasetSource, string, func(), error) {
	noop := func() {}
	if cfg.UsagePath != "" && cfg.MetricsPath != "" {
		return datasource.Files{UsagePath: cfg.UsagePath, MetricsPath: cfg.MetricsPath}, cfg.UsagePath + " + " + cfg.MetricsPath, noop, nil
	}

	gen, err := synth.New(cfg.Generator)
	if err != nil {
		return nil, "", noop, err
	}
	if cfg.UsagePath != "" {
		return usageFile{path: cfg.UsagePath, generator: gen, seed: cfg.Seed}, cfg.UsagePath + " (synthesized metrics)", noop, nil
	}
	if cfg.FixtureBackend != schema.NoneBackend {
		store, err := fixture.NewStore(cfg.FixtureBackend, cfg.FixtureDBConnect)
		if err != nil {
			return nil, "", noop, fmt.Errorf("failed to open fixture store: %w", err)
		}
		closeStore := func() {
			if err := store.Close(); err != nil {
				contract.LogWarn("Failed to close fixture store", err)
			}
		}
		src := datasource.Fixture{Store: store, Generator: gen, Seed: cfg.Seed, MetricsPath: cfg.MetricsPath}
		return src, "fixture:" + string(cfg.FixtureBackend), closeStore, nil
	}
	return datasource.Generated{Generator: gen, Seed: cfg.Seed}, fmt.Sprintf("generated (seed %d)", cfg.Seed), noop, nil
}

// usageFile reads a usage table and synthesizes metrics for its topology.
type usageFile struct {
	path      string
	generator *synth.Generator
	seed      uint64
}

var _ contract.DatasetSource = usageFile{} // Compile-time check

func (u usageFile) Load(ctx context.Context) (*schema.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	usage, err := datasource.ReadUsage(u.path)
	if err != nil {
		return nil, err
	}
	return u.generator.SynthesizeMetrics(usage, u.seed)
}

// GetGenerateResults draws a synthetic dataset from the configured generator.
func GetGenerateResults(ctx context.Context, cfg *contract.Config) (*schema.Dataset, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogGenerateHeader(cfg)
	}
	gen, err := synth.New(cfg.Generator)
	if err != nil {
		return nil, err
	}
	return datasource.Generated{Generator: gen, Seed: cfg.Seed}.Load(ctx)
}

// GetFitResults loads the configured dataset and fits the risk model on it.
// The returned dataset is the one the model was fit against.
func GetFitResults(ctx context.Context, cfg *contract.Config) (*model.Result, *schema.Dataset, error) {
	src, label, closeSource, err := datasetSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer closeSource()

	data, err := src.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogFitHeader(cfg, label)
	}
	result, err := FitDataset(ctx, cfg, data)
	if err != nil {
		return nil, data, err
	}
	return result, data, nil
}

// FitDataset fits the risk model on an already loaded dataset.
func FitDataset(ctx context.Context, cfg *contract.Config, data *schema.Dataset) (*model.Result, error) {
	zap.L().Debug("Dataset loaded",
		zap.Int("repositories", len(data.Metrics)),
		zap.Int("usage_rows", len(data.Usage)),
		zap.Int("labeled", data.LabelCount()))
	return model.Fit(ctx, data, cfg.Model)
}

// RankSummary orders and truncates the estimates of a fit for reporting.
func RankSummary(summary schema.FitSummary, limit int) schema.FitSummary {
	summary.Repositories = algo.RankRepositories(summary.Repositories, limit)
	summary.Projects = algo.RankProjects(summary.Projects, limit)
	return summary
}
