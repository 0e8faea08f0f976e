//go:build basic

package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fitReport mirrors the fields of the JSON fit report checked here.
type fitReport struct {
	Proxy        string `json:"proxy"`
	Repositories []struct {
		Rank      int     `json:"rank"`
		RiskIndex float64 `json:"risk_index"`
		Lower     float64 `json:"risk_lower_ci"`
		Upper     float64 `json:"risk_upper_ci"`
	} `json:"repositories"`
	Projects []struct {
		Rank      int     `json:"rank"`
		RiskIndex float64 `json:"risk_index"`
	} `json:"projects"`
}

func TestVersion(t *testing.T) {
	// cobra's Printf writes to stderr
	out, err := exec.Command(getTribalBinary(), "version").CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), "tribal CLI")
}

func TestGenerateIsReproducible(t *testing.T) {
	dir := t.TempDir()
	args := append([]string{"generate", "--output", "csv", "--seed", "11"}, smallRun...)

	_, err := runTribal(t, dir, nil, append(args, "--output-dir", "a")...)
	require.NoError(t, err)
	_, err = runTribal(t, dir, nil, append(args, "--output-dir", "b")...)
	require.NoError(t, err)

	for _, name := range []string{"usage.csv", "metrics.csv"} {
		first, err := os.ReadFile(filepath.Join(dir, "a", name))
		require.NoError(t, err)
		second, err := os.ReadFile(filepath.Join(dir, "b", name))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second), "%s should be byte-identical for the same seed", name)
	}
}

func TestGenerateThenFit(t *testing.T) {
	dir := t.TempDir()
	_, err := runTribal(t, dir, nil, append([]string{"generate", "--output", "parquet", "--output-dir", "data"}, smallRun...)...)
	require.NoError(t, err)

	args := append([]string{
		"fit", "--output", "json", "--limit", "5",
		"--usage", "data/usage.parquet", "--metrics", "data/metrics.parquet",
	}, smallRun...)
	out, err := runTribal(t, dir, nil, args...)
	require.NoError(t, err)

	var report fitReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Repositories, 5)
	assert.True(t, sort.SliceIsSorted(report.Repositories, func(i, j int) bool {
		return report.Repositories[i].RiskIndex > report.Repositories[j].RiskIndex
	}))
	for i, repo := range report.Repositories {
		assert.Equal(t, i+1, repo.Rank)
		assert.LessOrEqual(t, repo.Lower, repo.RiskIndex)
		assert.GreaterOrEqual(t, repo.Upper, repo.RiskIndex)
	}
}

func TestRunWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	env := []string{"TRIBAL_MODEL_PROXY=heuristic"}
	args := append([]string{
		"run", "--output", "csv", "--output-file", "estimates.csv",
		"--samples-file", "draws.parquet", "--metrics-file", "tribal.prom",
	}, smallRun...)
	_, err := runTribal(t, dir, env, args...)
	require.NoError(t, err)

	for _, name := range []string{"estimates.csv", "draws.parquet", "tribal.prom"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
	prom, err := os.ReadFile(filepath.Join(dir, "tribal.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `tribal_runs_total{command="run",status="success"} 1`)
}

func TestModelCommand(t *testing.T) {
	out, err := runTribal(t, t.TempDir(), nil, "model", "--output", "csv")
	require.NoError(t, err)
	assert.True(t, strings.Count(out, "\n") > 5)
}

func TestFixtureWithSQLite(t *testing.T) {
	dir := t.TempDir()
	topology := writeTopology(t, dir)
	env := []string{
		"TRIBAL_FIXTURE_BACKEND=sqlite",
		"TRIBAL_FIXTURE_DB_CONNECT=" + filepath.Join(dir, "fixture.db"),
	}
	runFixtureLifecycle(t, dir, env, topology)
}

func TestFitRejectsMetricsWithoutUsage(t *testing.T) {
	_, err := runTribal(t, t.TempDir(), nil, "fit", "--metrics", "metrics.csv")
	require.Error(t, err)
}
