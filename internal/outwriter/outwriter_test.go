package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/tribal/core/model"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/internal/parquet"
	"github.com/huangsam/tribal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(mode schema.OutputMode) *contract.Config {
	return &contract.Config{
		Output:      mode,
		Precision:   2,
		ResultLimit: 10,
		Width:       160,
		Seed:        7,
	}
}

func testSummary() schema.FitSummary {
	return schema.FitSummary{
		RunID:        "run-1",
		Proxy:        schema.LabelProxy,
		Chains:       2,
		Iterations:   300,
		Draws:        200,
		CredibleMass: 0.95,
		Projects: []schema.ProjectEstimate{
			{ProjectID: "payments", Repositories: 2, RiskMean: 0.8, RiskIndex: 78.8, Label: "High", Shrinkage: 0.6},
			{ProjectID: "search", Repositories: 1, RiskMean: -0.2, RiskIndex: 42.1, Label: "Moderate", Shrinkage: 0.3},
		},
		Repositories: []schema.RepositoryEstimate{
			{ProjectID: "payments", RepositoryID: "ledger", Name: "payments/ledger", RiskMean: 1.1, RiskIndex: 86.4, Label: "Critical",
				Drivers: []schema.MetricKey{schema.DaysSinceLastCommitKey, schema.OpenIssueRatioKey}},
			{ProjectID: "search", RepositoryID: "indexer", Name: "search/indexer", RiskMean: -0.2, RiskIndex: 42.1, Label: "Moderate", Imputed: true},
		},
		Weights: []schema.WeightEstimate{
			{Metric: schema.DaysSinceLastCommitKey, Mean: 0.4, Lower: 0.1, Upper: 0.7, ExpectedSign: 1, Status: schema.SignConfirmed},
		},
		Diagnostics: []schema.ParameterDiagnostic{
			{Parameter: "mu", Rhat: 1.01, ESS: 350},
			{Parameter: "sigma", Rhat: 1.03, ESS: 180},
		},
		Warnings: []string{"weight w_age_days has an uncertain sign"},
	}
}

func TestPrintEstimatesCSV(t *testing.T) {
	cfg := testConfig(schema.CSVOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "estimates.csv")
	require.NoError(t, PrintEstimates(testSummary(), cfg, time.Second))

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, strings.Join(EstimatesHeader, ","), lines[0])
	assert.Equal(t, "project,1,payments,,payments,0.80,0.00,0.00,0.00,78.80,High", lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "repository,1,payments,ledger,payments/ledger,1.10"))
}

func TestPrintEstimatesJSON(t *testing.T) {
	cfg := testConfig(schema.JSONOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "estimates.json")
	require.NoError(t, PrintEstimates(testSummary(), cfg, time.Second))

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var report FitReport
	require.NoError(t, json.Unmarshal(content, &report))
	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, report.Repositories, 2)
	assert.Equal(t, 2, report.Repositories[1].Rank)
	assert.True(t, report.Repositories[1].Imputed)
	assert.Equal(t, []schema.MetricKey{schema.DaysSinceLastCommitKey, schema.OpenIssueRatioKey}, report.Repositories[0].Drivers)
}

func TestPrintEstimatesParquet(t *testing.T) {
	cfg := testConfig(schema.ParquetOut)
	cfg.OutputDir = t.TempDir()
	require.NoError(t, PrintEstimates(testSummary(), cfg, time.Second))

	repos, err := parquet.ReadFile[parquet.RepositoryEstimateRow](filepath.Join(cfg.OutputDir, "repository_estimates.parquet"))
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "run-1", repos[0].RunID)
	assert.Equal(t, int32(1), repos[0].Rank)

	projects, err := parquet.ReadFile[parquet.ProjectEstimateRow](filepath.Join(cfg.OutputDir, "project_estimates.parquet"))
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestWriteEstimatesText(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(schema.TextOut)
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	require.NoError(t, writeEstimatesText(&buf, NewFitReport(testSummary()), cfg, fmtFloat, intFmt, time.Second))

	out := buf.String()
	assert.Contains(t, out, "search/indexer*")
	assert.Contains(t, out, "days_since_last_commit > open_issue_ratio")
	assert.Contains(t, out, "95% CI")
	assert.Contains(t, out, "max R-hat 1.03, min ESS 180.00")
	assert.Contains(t, out, "Warning: weight w_age_days has an uncertain sign")
}

func TestDatasetCSVIsDeterministic(t *testing.T) {
	proxy := 61.5
	data := &schema.Dataset{
		Usage: []schema.LanguageUsage{
			{ProjectID: "p1", RepositoryID: "r1", Language: "Go", ByteCount: 1200},
			{ProjectID: "p1", RepositoryID: "r1", Language: "Shell", ByteCount: 40},
		},
		Metrics: []schema.RepositoryMetrics{
			{ProjectID: "p1", RepositoryID: "r1", Name: "p1/r1", DaysSinceLastCommit: 12.25, AgeDays: 900,
				CommitFrequency: 3.5, OpenIssueRatio: 0.2, PRResolutionDays: 2, LanguageCount: 2,
				AvgCommitsPerMonth: 15.2, RiskProxy: &proxy},
		},
	}

	render := func() (string, string) {
		var usage, metrics bytes.Buffer
		require.NoError(t, WriteUsageCSV(&usage, data.Usage))
		require.NoError(t, WriteMetricsCSV(&metrics, data.Metrics))
		return usage.String(), metrics.String()
	}
	u1, m1 := render()
	u2, m2 := render()
	assert.Equal(t, u1, u2)
	assert.Equal(t, m1, m2)
	assert.Equal(t, "project_id,repository_id,language,byte_count\np1,r1,Go,1200\np1,r1,Shell,40\n", u1)
	assert.Contains(t, m1, "61.5")

	dir := t.TempDir()
	usagePath, metricsPath, err := WriteDatasetFiles(data, dir, schema.CSVOut)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "usage.csv"), usagePath)
	assert.FileExists(t, metricsPath)

	_, _, err = WriteDatasetFiles(data, dir, schema.TextOut)
	require.Error(t, err)
}

func TestWriteDatasetTable(t *testing.T) {
	data := &schema.Dataset{
		Usage: []schema.LanguageUsage{
			{ProjectID: "p1", RepositoryID: "r1", Language: "Go", ByteCount: 900},
			{ProjectID: "p1", RepositoryID: "r1", Language: "SQL", ByteCount: 100},
			{ProjectID: "p2", RepositoryID: "r1", Language: "Java", ByteCount: 500},
		},
		Metrics: []schema.RepositoryMetrics{
			{ProjectID: "p1", RepositoryID: "r1", Name: "p1/r1", LanguageCount: 2, CommitFrequency: 2},
			{ProjectID: "p2", RepositoryID: "r1", Name: "p2/r1", LanguageCount: 1, CommitFrequency: 4},
		},
	}
	cfg := testConfig(schema.TextOut)
	cfg.ResultLimit = 1

	var buf bytes.Buffer
	require.NoError(t, writeDatasetTable(&buf, data, cfg, time.Second))
	assert.Contains(t, buf.String(), "Showing 1 of 2 projects (repositories: 2, usage rows: 3, labeled: 0)")
	assert.Contains(t, buf.String(), "seed 7")
}

type sliceSource []schema.PosteriorSample

func (s sliceSource) Each(fn func(schema.PosteriorSample) error) error {
	for _, sample := range s {
		if err := fn(sample); err != nil {
			return err
		}
	}
	return nil
}

func TestWriteSamples(t *testing.T) {
	samples := sliceSource{
		{RunID: "run-1", Chain: 0, Draw: 0, Parameter: "mu", Value: 0.125},
		{RunID: "run-1", Chain: 1, Draw: 0, Parameter: "mu", Value: -0.5},
	}

	var buf bytes.Buffer
	n, err := WriteSamplesCSV(&buf, samples)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "run_id,chain,draw,parameter,value\nrun-1,0,0,mu,0.125\nrun-1,1,0,mu,-0.5\n", buf.String())

	path := filepath.Join(t.TempDir(), "samples.parquet")
	n, err = WriteSamplesFile(path, samples)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	rows, err := parquet.ReadFile[parquet.SampleRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int32(1), rows[1].Chain)
}

func TestPrintModel(t *testing.T) {
	desc := model.Describe(model.DefaultOptions())

	cfg := testConfig(schema.TextOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "model.txt")
	require.NoError(t, PrintModel(desc, cfg))
	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Hierarchical Risk Model")
	assert.Contains(t, string(content), "Critical >= 80")

	cfg = testConfig(schema.CSVOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "model.csv")
	require.NoError(t, PrintModel(desc, cfg))
	content, err = os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Equal(t, "name,level,kind,parents,distribution", lines[0])
	assert.Len(t, lines, len(desc.Nodes)+1)

	require.Error(t, PrintModel(desc, testConfig(schema.ParquetOut)))
}

func TestFixtureOutput(t *testing.T) {
	status := schema.FixtureStatus{
		Backend: "sqlite", Connected: true, SchemaVersion: 2,
		Projects: 2, Repositories: 3, Rows: 4, TotalBytes: 6060, Imports: 1,
		LastImport: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), LastSource: "topology.yaml",
	}
	history := []schema.ImportRecord{{ImportID: "abc", Source: "topology.yaml", Rows: 4, ImportedAt: status.LastImport}}

	var buf bytes.Buffer
	require.NoError(t, writeFixtureStatusText(&buf, status, history))
	assert.Contains(t, buf.String(), "Schema Version: 2 (dirty: false)")
	assert.Contains(t, buf.String(), "Last Import: 2026-03-01 12:00:00 from topology.yaml")

	buf.Reset()
	require.NoError(t, writeFixtureStatusText(&buf, schema.FixtureStatus{Backend: "none"}, nil))
	assert.Equal(t, "Fixture Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	require.NoError(t, PrintMigration(schema.MigrationResult{From: 2, To: 2}, &buf))
	require.NoError(t, PrintMigration(schema.MigrationResult{From: 0, To: 2, Changed: true}, &buf))
	require.NoError(t, PrintMigration(schema.MigrationResult{From: 2, To: 1, Changed: true}, &buf))
	assert.Equal(t, "No migration needed. Database is already at version 2\n"+
		"Successfully migrated from version 0 to version 2\n"+
		"Successfully rolled back from version 2 to version 1\n", buf.String())
}

func TestHeaders(t *testing.T) {
	var buf bytes.Buffer
	orig := headerWriter
	headerWriter = &buf
	t.Cleanup(func() { headerWriter = orig })

	cfg := testConfig(schema.TextOut)
	cfg.Generator.Projects = 5
	cfg.Generator.MinRepos = 2
	cfg.Generator.MaxRepos = 8
	cfg.Model = model.DefaultOptions()
	cfg.Model.Seed = 7

	LogGenerateHeader(cfg)
	LogFitHeader(cfg, "generated")
	assert.Equal(t, "Generate: 5 projects x 2-8 repositories (seed 7)\n"+
		"Catalog: 0 languages, label coverage 0.00\n"+
		"Data: generated (proxy: auto)\n"+
		"Sampler: 4 chains x (500 warmup + 1000 draws), seed 7\n", buf.String())
}
