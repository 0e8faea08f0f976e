// Package core has core logic for generating datasets, fitting the risk
// model and reporting on it.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/tribal/core/model"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/internal/datasource"
	"github.com/huangsam/tribal/internal/fixture"
	"github.com/huangsam/tribal/internal/outwriter"
	"github.com/huangsam/tribal/internal/telemetry"
	"github.com/huangsam/tribal/schema"
	"go.uber.org/zap"
)

// ExecutorFunc defines the function signature for executing a command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config) error

// ExecuteGenerate draws a synthetic dataset and writes it.
// It serves as the main entry point for the 'generate' command.
func ExecuteGenerate(ctx context.Context, cfg *contract.Config) (err error) {
	start := time.Now()
	metrics := telemetry.New()
	defer func() { finishRun(cfg, metrics, "generate", start, err) }()

	data, err := GetGenerateResults(ctx, cfg)
	if err != nil {
		return err
	}
	metrics.ObserveDataset(data)
	return outwriter.PrintDataset(data, cfg, time.Since(start))
}

// ExecuteFit loads a dataset, fits the risk model and prints the ranked estimates.
// It serves as the main entry point for the 'fit' command.
func ExecuteFit(ctx context.Context, cfg *contract.Config) (err error) {
	start := time.Now()
	metrics := telemetry.New()
	defer func() { finishRun(cfg, metrics, "fit", start, err) }()

	result, data, err := GetFitResults(ctx, cfg)
	if data != nil {
		metrics.ObserveDataset(data)
	}
	if err != nil {
		return err
	}
	return report(cfg, metrics, result, time.Since(start))
}

// ExecuteRun generates a dataset, fits the model on it and prints the
// estimates in one process. With --output-dir the dataset is written too.
func ExecuteRun(ctx context.Context, cfg *contract.Config) (err error) {
	start := time.Now()
	metrics := telemetry.New()
	defer func() { finishRun(cfg, metrics, "run", start, err) }()

	data, err := GetGenerateResults(ctx, cfg)
	if err != nil {
		return err
	}
	metrics.ObserveDataset(data)

	if cfg.OutputDir != "" {
		mode := cfg.Output
		if mode == schema.TextOut {
			mode = schema.CSVOut
		}
		if _, _, err := outwriter.WriteDatasetFiles(data, cfg.OutputDir, mode); err != nil {
			return err
		}
	}

	if !shouldSuppressHeader(ctx) {
		outwriter.LogFitHeader(cfg, fmt.Sprintf("generated (seed %d)", cfg.Seed))
	}
	result, err := FitDataset(ctx, cfg, data)
	if err != nil {
		return err
	}
	return report(cfg, metrics, result, time.Since(start))
}

// ExecuteModelInfo prints the parameter graph, priors and link of the model.
func ExecuteModelInfo(_ context.Context, cfg *contract.Config) error {
	return outwriter.PrintModel(model.Describe(cfg.Model), cfg)
}

// report writes the posterior samples when asked, then prints the ranked estimates.
func report(cfg *contract.Config, metrics *telemetry.Metrics, result *model.Result, duration time.Duration) error {
	summary := result.Summary()
	metrics.ObserveFit(summary)

	if cfg.SamplesFile != "" {
		if _, err := outwriter.WriteSamplesFile(cfg.SamplesFile, result.Posterior); err != nil {
			return err
		}
	}
	return outwriter.PrintEstimates(RankSummary(summary, cfg.ResultLimit), cfg, duration)
}

// finishRun records the run and writes the metrics textfile when configured.
// A textfile failure is only logged.
func finishRun(cfg *contract.Config, metrics *telemetry.Metrics, command string, start time.Time, err error) {
	metrics.ObserveRun(command, time.Since(start), err)
	if cfg.MetricsFile == "" {
		return
	}
	if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
		contract.LogWarn("Cannot write metrics textfile", werr)
		return
	}
	zap.L().Debug("Wrote metrics textfile", zap.String("path", cfg.MetricsFile))
}

// ExecuteFixtureImport reads a topology fixture and stores it.
func ExecuteFixtureImport(ctx context.Context, cfg *contract.Config, path string) error {
	if cfg.FixtureBackend == schema.NoneBackend {
		return fmt.Errorf("fixture import needs a fixture backend; set --fixture-backend")
	}
	rows, err := datasource.ReadTopology(path)
	if err != nil {
		return err
	}
	store, err := openFixtureStore(cfg)
	if err != nil {
		return err
	}
	defer closeFixtureStore(store)

	n, err := store.ImportUsage(ctx, path, rows)
	if err != nil {
		return fmt.Errorf("failed to import topology: %w", err)
	}
	return outwriter.PrintImport(n, path, os.Stdout)
}

// ExecuteFixtureStatus prints fixture store status and its import log.
func ExecuteFixtureStatus(ctx context.Context, cfg *contract.Config) error {
	store, err := openFixtureStore(cfg)
	if err != nil {
		return err
	}
	defer closeFixtureStore(store)

	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get fixture status: %w", err)
	}
	history, err := store.History(ctx)
	if err != nil {
		return fmt.Errorf("failed to read import history: %w", err)
	}
	return outwriter.PrintFixtureStatus(status, history, cfg)
}

// ExecuteFixtureClear removes the stored topology and its import log.
func ExecuteFixtureClear(ctx context.Context, cfg *contract.Config) error {
	store, err := openFixtureStore(cfg)
	if err != nil {
		return err
	}
	defer closeFixtureStore(store)

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear fixture: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, "Fixture cleared successfully.")
	return err
}

// ExecuteFixtureMigrate migrates the fixture schema to targetVersion
// (negative for latest, zero to roll everything back).
func ExecuteFixtureMigrate(_ context.Context, cfg *contract.Config, targetVersion int) error {
	result, err := fixture.Migrate(cfg.FixtureBackend, cfg.FixtureDBConnect, targetVersion)
	if err != nil {
		return err
	}
	return outwriter.PrintMigration(result, os.Stdout)
}
