package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/tribal/core/synth"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/schema"
	"go.uber.org/zap"
)

// Files loads a dataset from a usage table and a metrics table on disk.
type Files struct {
	UsagePath   string
	MetricsPath string
}

var _ contract.DatasetSource = Files{} // Compile-time check

// Load reads and validates both tables.
func (f Files) Load(_ context.Context) (*schema.Dataset, error) {
	return ReadDataset(f.UsagePath, f.MetricsPath)
}

// Generated draws a fresh synthetic dataset.
type Generated struct {
	Generator *synth.Generator
	Seed      uint64
}

var _ contract.DatasetSource = Generated{} // Compile-time check

// Load runs the generator with the configured seed.
func (g Generated) Load(ctx context.Context) (*schema.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Generator.Generate(g.Seed)
}

// Fixture loads topology rows from a fixture store and completes them with
// metrics: read from MetricsPath when set, synthesized otherwise.
type Fixture struct {
	Store       contract.FixtureStore
	Generator   *synth.Generator
	Seed        uint64
	MetricsPath string
}

var _ contract.DatasetSource = Fixture{} // Compile-time check

// ErrNoMetricsSource is returned when a fixture has neither a metrics file nor a generator.
var ErrNoMetricsSource = errors.New("fixture topology needs a metrics file or a generator")

// Load reads the stored topology and attaches metrics to it.
func (f Fixture) Load(ctx context.Context) (*schema.Dataset, error) {
	usage, err := f.Store.LoadUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load topology fixture: %w", err)
	}

	if f.MetricsPath != "" {
		metrics, err := ReadMetrics(f.MetricsPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read metrics table: %w", err)
		}
		data := &schema.Dataset{Usage: usage, Metrics: metrics}
		if err := data.Validate(); err != nil {
			return nil, fmt.Errorf("invalid dataset: %w", err)
		}
		return data, nil
	}

	if f.Generator == nil {
		return nil, ErrNoMetricsSource
	}
	zap.L().Debug("Synthesizing metrics for fixture topology", zap.Int("rows", len(usage)))
	return f.Generator.SynthesizeMetrics(usage, f.Seed)
}
