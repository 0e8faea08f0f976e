package datasource

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/tribal/core/synth"
	"github.com/huangsam/tribal/internal/parquet"
	"github.com/huangsam/tribal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFixtureStore is a testify mock of contract.FixtureStore.
type MockFixtureStore struct {
	mock.Mock
}

func (m *MockFixtureStore) ImportUsage(ctx context.Context, source string, rows []schema.LanguageUsage) (int, error) {
	args := m.Called(ctx, source, rows)
	return args.Int(0), args.Error(1)
}

func (m *MockFixtureStore) LoadUsage(ctx context.Context) ([]schema.LanguageUsage, error) {
	args := m.Called(ctx)
	usage, _ := args.Get(0).([]schema.LanguageUsage)
	return usage, args.Error(1)
}

func (m *MockFixtureStore) History(ctx context.Context) ([]schema.ImportRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.ImportRecord)
	return records, args.Error(1)
}

func (m *MockFixtureStore) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockFixtureStore) GetStatus(ctx context.Context) (schema.FixtureStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.FixtureStatus), args.Error(1)
}

func (m *MockFixtureStore) Close() error {
	return m.Called().Error(0)
}

func ptr(v float64) *float64 { return &v }

func testDataset() *schema.Dataset {
	return &schema.Dataset{
		Usage: []schema.LanguageUsage{
			{ProjectID: "Project_1", RepositoryID: "Repo_1", Language: "Go", ByteCount: 5000},
			{ProjectID: "Project_1", RepositoryID: "Repo_1", Language: "Bash", ByteCount: 120},
			{ProjectID: "Project_2", RepositoryID: "Repo_1", Language: "C#", ByteCount: 999},
		},
		Metrics: []schema.RepositoryMetrics{
			{
				ProjectID: "Project_1", RepositoryID: "Repo_1", Name: "Project_1/Repo_1",
				DaysSinceLastCommit: 2.25, AgeDays: 1234.5, CommitFrequency: 0.1 + 0.2, OpenIssueRatio: 0.125,
				PRResolutionDays: 3, LanguageCount: 2, AvgCommitsPerMonth: 1.3035, RiskProxy: ptr(47.123456789),
			},
			{
				ProjectID: "Project_2", RepositoryID: "Repo_1", Name: "Project_2/Repo_1",
				DaysSinceLastCommit: 40, AgeDays: 60, CommitFrequency: 0.5, OpenIssueRatio: 1,
				PRResolutionDays: 12, LanguageCount: 1, AvgCommitsPerMonth: 2,
			},
		},
	}
}

func writeCSVFile(t *testing.T, path string, header []string, records [][]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(records))
	require.NoError(t, f.Close())
}

func writeCSVDataset(t *testing.T, dir string, data *schema.Dataset) (string, string) {
	t.Helper()
	usagePath := filepath.Join(dir, "usage.csv")
	metricsPath := filepath.Join(dir, "metrics.csv")
	var usage, metrics [][]string
	for _, u := range data.Usage {
		usage = append(usage, UsageRecord(u))
	}
	for _, m := range data.Metrics {
		metrics = append(metrics, MetricsRecord(m))
	}
	writeCSVFile(t, usagePath, UsageHeader, usage)
	writeCSVFile(t, metricsPath, MetricsHeader, metrics)
	return usagePath, metricsPath
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]schema.OutputMode{
		"a.csv": schema.CSVOut, "b.JSON": schema.JSONOut, "c.parquet": schema.ParquetOut,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := FormatOf("d.xlsx")
	assert.ErrorContains(t, err, "unsupported table format")
}

func TestCSVRoundTripIsExact(t *testing.T) {
	data := testDataset()
	usagePath, metricsPath := writeCSVDataset(t, t.TempDir(), data)

	got, err := ReadDataset(usagePath, metricsPath)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestJSONAndParquetTables(t *testing.T) {
	dir := t.TempDir()
	data := testDataset()

	usageJSON, err := json.Marshal(data.Usage)
	require.NoError(t, err)
	metricsJSON, err := json.Marshal(data.Metrics)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usage.json"), usageJSON, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metrics.json"), metricsJSON, 0o644))

	got, err := Files{
		UsagePath:   filepath.Join(dir, "usage.json"),
		MetricsPath: filepath.Join(dir, "metrics.json"),
	}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, parquet.WriteFile(parquet.FromUsage(data.Usage), filepath.Join(dir, "usage.parquet")))
	require.NoError(t, parquet.WriteFile(parquet.FromMetrics(data.Metrics), filepath.Join(dir, "metrics.parquet")))
	got, err = ReadDataset(filepath.Join(dir, "usage.parquet"), filepath.Join(dir, "metrics.parquet"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReadMetricsCSVErrors(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.csv")
	writeCSVFile(t, missing, []string{"project_id", "repository_id"}, nil)
	_, err := ReadMetrics(missing)
	assert.ErrorContains(t, err, "missing columns: name, days_since_last_commit")

	bad := filepath.Join(dir, "bad.csv")
	record := MetricsRecord(testDataset().Metrics[0])
	record[4] = "old"
	writeCSVFile(t, bad, MetricsHeader, [][]string{record})
	_, err = ReadMetrics(bad)
	assert.ErrorContains(t, err, "line 2: age_days")

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadUsage(empty)
	assert.ErrorContains(t, err, "is empty")
}

func TestReadDatasetValidates(t *testing.T) {
	data := testDataset()
	data.Metrics[1].OpenIssueRatio = 2
	usagePath, metricsPath := writeCSVDataset(t, t.TempDir(), data)

	_, err := ReadDataset(usagePath, metricsPath)
	assert.ErrorContains(t, err, "open_issue_ratio must be in [0,1]")
}

func TestReadTopologyForms(t *testing.T) {
	dir := t.TempDir()
	nested := `{"Project_1": {"Repo_1": {"Python": 100, "SQL": 7}}, "Project_2": {"Repo_9": {"Go": 3}}}`
	rows := `[{"project_id": "Project_1", "repository_id": "Repo_1", "language": "Python", "byte_count": 100}]`
	yamlNested := "Project_1:\n  Repo_1:\n    Python: 100\n    SQL: 7\n"
	yamlRows := "- project_id: Project_1\n  repository_id: Repo_1\n  language: Python\n  byte_count: 100\n"

	files := map[string]string{
		"nested.json": nested, "rows.json": rows, "nested.yaml": yamlNested, "rows.yml": yamlRows,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	usage, err := ReadTopology(filepath.Join(dir, "nested.json"))
	require.NoError(t, err)
	assert.Equal(t, []schema.LanguageUsage{
		{ProjectID: "Project_1", RepositoryID: "Repo_1", Language: "Python", ByteCount: 100},
		{ProjectID: "Project_1", RepositoryID: "Repo_1", Language: "SQL", ByteCount: 7},
		{ProjectID: "Project_2", RepositoryID: "Repo_9", Language: "Go", ByteCount: 3},
	}, usage)

	usage, err = ReadTopology(filepath.Join(dir, "rows.json"))
	require.NoError(t, err)
	assert.Len(t, usage, 1)

	usage, err = ReadTopology(filepath.Join(dir, "nested.yaml"))
	require.NoError(t, err)
	assert.Len(t, usage, 2)
	assert.Equal(t, "SQL", usage[1].Language)

	usage, err = ReadTopology(filepath.Join(dir, "rows.yml"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), usage[0].ByteCount)
}

func TestReadTopologyRejectsBadRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Project_1": {"Repo_1": {"Go": -4}}}`), 0o644))
	_, err := ReadTopology(path)
	assert.ErrorContains(t, err, "byte_count must be >= 0")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte(""), 0o644))
	_, err = ReadTopology(empty)
	assert.ErrorContains(t, err, "has no rows")
}

func TestWriteTopologyYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.yaml")
	data := testDataset()
	require.NoError(t, WriteTopologyYAML(path, data.Usage))

	usage, err := ReadTopology(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, data.Usage, usage)
}

func TestGeneratedSource(t *testing.T) {
	gen, err := synth.New(synth.DefaultConfig())
	require.NoError(t, err)

	a, err := Generated{Generator: gen, Seed: 3}.Load(context.Background())
	require.NoError(t, err)
	b, err := Generated{Generator: gen, Seed: 3}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Generated{Generator: gen, Seed: 3}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixtureSource(t *testing.T) {
	ctx := context.Background()
	data := testDataset()
	gen, err := synth.New(synth.DefaultConfig())
	require.NoError(t, err)

	store := &MockFixtureStore{}
	store.On("LoadUsage", ctx).Return(data.Usage, nil)

	synthesized, err := Fixture{Store: store, Generator: gen, Seed: 9}.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, data.Usage, synthesized.Usage)
	assert.Len(t, synthesized.Metrics, 2)

	_, metricsPath := writeCSVDataset(t, t.TempDir(), data)
	fromFile, err := Fixture{Store: store, MetricsPath: metricsPath}.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, data.Metrics, fromFile.Metrics)

	_, err = Fixture{Store: store}.Load(ctx)
	assert.ErrorIs(t, err, ErrNoMetricsSource)
	store.AssertExpectations(t)

	failing := &MockFixtureStore{}
	failing.On("LoadUsage", ctx).Return(nil, errors.New("connection refused"))
	_, err = Fixture{Store: failing, Generator: gen}.Load(ctx)
	assert.ErrorContains(t, err, "cannot load topology fixture: connection refused")
}
