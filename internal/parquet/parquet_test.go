package parquet

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/tribal/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestRowStructTags(t *testing.T) {
	tests := []struct {
		name     string
		model    any
		expected []string
	}{
		{"usage", new(UsageRow), []string{"project_id", "repository_id", "language", "byte_count"}},
		{"metrics", new(MetricsRow), []string{
			"project_id", "repository_id", "name", "days_since_last_commit", "age_days",
			"commit_frequency", "open_issue_ratio", "pr_resolution_days", "language_count",
			"avg_commits_per_month", "risk_proxy",
		}},
		{"repository estimates", new(RepositoryEstimateRow), []string{
			"run_id", "rank", "project_id", "repository_id", "risk_mean", "risk_sd",
			"risk_lower_ci", "risk_upper_ci", "risk_index", "label", "imputed",
		}},
		{"project estimates", new(ProjectEstimateRow), []string{
			"run_id", "project_id", "repositories", "risk_mean", "population_mean", "unpooled_mean", "shrinkage",
		}},
		{"samples", new(SampleRow), []string{"run_id", "chain", "draw", "parameter", "value"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, colName := range tt.expected {
				_, ok := s.Lookup(colName)
				assert.True(t, ok, "Column %s should exist in schema", colName)
			}
		})
	}
}

func TestDatasetRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	usage := []schema.LanguageUsage{
		{ProjectID: "Project_1", RepositoryID: "Repo_1", Language: "Go", ByteCount: 1200},
		{ProjectID: "Project_1", RepositoryID: "Repo_1", Language: "Bash", ByteCount: 34},
	}
	metrics := []schema.RepositoryMetrics{
		{
			ProjectID: "Project_1", RepositoryID: "Repo_1", Name: "Project_1/Repo_1",
			DaysSinceLastCommit: 3.5, AgeDays: 820, CommitFrequency: 4.2, OpenIssueRatio: 0.25,
			PRResolutionDays: 2.1, LanguageCount: 2, AvgCommitsPerMonth: 18.2, RiskProxy: ptr(61.5),
		},
		{ProjectID: "Project_1", RepositoryID: "Repo_2", Name: "Project_1/Repo_2", LanguageCount: 1},
	}

	usagePath := filepath.Join(tmpDir, "usage.parquet")
	metricsPath := filepath.Join(tmpDir, "metrics.parquet")
	require.NoError(t, WriteFile(FromUsage(usage), usagePath))
	require.NoError(t, WriteFile(FromMetrics(metrics), metricsPath))

	gotUsage, err := ReadFile[UsageRow](usagePath)
	require.NoError(t, err)
	assert.Equal(t, usage, ToUsage(gotUsage))

	gotMetrics, err := ReadFile[MetricsRow](metricsPath)
	require.NoError(t, err)
	back := ToMetrics(gotMetrics)
	require.Len(t, back, 2)
	assert.Equal(t, metrics[0], back[0])
	assert.Nil(t, back[1].RiskProxy, "missing labels stay missing")
}

func TestWriteFileEmptyData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteFile([]UsageRow{}, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "footer is still written")

	rows, err := ReadFile[UsageRow](path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteFileInvalidPath(t *testing.T) {
	err := WriteFile([]UsageRow{{}}, filepath.Join(t.TempDir(), "missing", "x.parquet"))
	assert.ErrorContains(t, err, "failed to create output file")

	_, err = ReadFile[UsageRow](filepath.Join(t.TempDir(), "nope.parquet"))
	assert.ErrorContains(t, err, "failed to open parquet file")
}

func TestSampleWriterBatches(t *testing.T) {
	var buf bytes.Buffer
	w := NewSampleWriter(&buf)
	total := sampleBatch + 17
	for i := range total {
		require.NoError(t, w.Write(schema.PosteriorSample{
			RunID: "run", Chain: i % 2, Draw: i / 2, Parameter: "mu", Value: float64(i),
		}))
	}
	assert.Equal(t, sampleBatch, w.Rows())
	require.NoError(t, w.Close())
	assert.Equal(t, total, w.Rows())

	path := filepath.Join(t.TempDir(), "samples.parquet")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	rows, err := ReadFile[SampleRow](path)
	require.NoError(t, err)
	require.Len(t, rows, total)
	assert.Equal(t, SampleRow{RunID: "run", Chain: 1, Draw: 8, Parameter: "mu", Value: 17}, rows[17])
}

func TestFromEstimates(t *testing.T) {
	repos := schema.EnrichRepositories([]schema.RepositoryEstimate{
		{ProjectID: "Project_1", RepositoryID: "Repo_3", RiskMean: 0.8, RiskIndex: 78.8, Label: "High", Imputed: true},
	})
	rows := FromRepositoryEstimates("run-1", repos)
	require.Len(t, rows, 1)
	assert.Equal(t, "run-1", rows[0].RunID)
	assert.Equal(t, int32(1), rows[0].Rank)
	assert.True(t, rows[0].Imputed)

	projects := schema.EnrichProjects([]schema.ProjectEstimate{
		{ProjectID: "Project_1", Repositories: 4, Shrinkage: 0.7},
	})
	prow := FromProjectEstimates("run-1", projects)
	require.Len(t, prow, 1)
	assert.Equal(t, int32(4), prow[0].Repositories)
	assert.Equal(t, 0.7, prow[0].Shrinkage)
}
