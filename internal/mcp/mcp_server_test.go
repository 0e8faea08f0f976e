package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/huangsam/tribal/core/model"
	"github.com/huangsam/tribal/internal/contract"
	mcp_internal "github.com/huangsam/tribal/internal/mcp"
	"github.com/huangsam/tribal/internal/outwriter"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *contract.Config {
	t.Helper()
	input := contract.NewConfigRawInput()
	input.Generator.Projects = 3
	input.Generator.MinRepos = 3
	input.Generator.MaxRepos = 5
	input.Model.Chains = 2
	input.Model.Warmup = 200
	input.Model.Draws = 500
	input.Model.MinESS = 50
	cfg := &contract.Config{}
	require.NoError(t, contract.ProcessAndValidate(cfg, input))
	return cfg
}

func call(t *testing.T, cfg *contract.Config, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(cfg, "test")
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestGenerateDataset(t *testing.T) {
	cfg := baseConfig(t)
	res := call(t, cfg, "generate_dataset", map[string]any{"seed": 7.0, "projects": 2.0})
	require.False(t, res.IsError, text(res))

	var payload struct {
		Seed     uint64           `json:"seed"`
		Projects []map[string]any `json:"projects"`
		Usage    []map[string]any `json:"usage"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(res)), &payload))
	assert.Equal(t, uint64(7), payload.Seed)
	assert.Len(t, payload.Projects, 2)
	assert.Empty(t, payload.Usage)
	assert.Equal(t, 3, cfg.Generator.Projects, "tool arguments must not change the base config")

	res = call(t, cfg, "generate_dataset", map[string]any{"seed": 7.0, "include_tables": true})
	require.NoError(t, json.Unmarshal([]byte(text(res)), &payload))
	assert.NotEmpty(t, payload.Usage)
}

func TestGenerateDatasetValidationError(t *testing.T) {
	res := call(t, baseConfig(t), "generate_dataset", map[string]any{"min_repos": 9.0, "max_repos": 2.0})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "invalid generator parameters")
}

func TestEstimateRisk(t *testing.T) {
	res := call(t, baseConfig(t), "estimate_risk", map[string]any{"limit": 3.0, "proxy": "heuristic"})
	require.False(t, res.IsError, text(res))

	var report outwriter.FitReport
	require.NoError(t, json.Unmarshal([]byte(text(res)), &report))
	assert.Len(t, report.Repositories, 3)
	assert.Equal(t, 1, report.Repositories[0].Rank)
	assert.EqualValues(t, "heuristic", report.Proxy)
}

func TestEstimateRiskValidationErrors(t *testing.T) {
	cfg := baseConfig(t)

	res := call(t, cfg, "estimate_risk", map[string]any{"metrics_path": "metrics.csv"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "metrics_path requires usage_path")

	res = call(t, cfg, "estimate_risk", map[string]any{"proxy": "oracle"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "proxy must be one of auto, label, heuristic")

	res = call(t, cfg, "estimate_risk", map[string]any{"usage_path": "missing.csv", "metrics_path": "missing_metrics.csv"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "estimation failed")
}

func TestDescribeModel(t *testing.T) {
	cfg := baseConfig(t)
	res := call(t, cfg, "describe_model", nil)
	require.False(t, res.IsError)

	var desc model.Description
	require.NoError(t, json.Unmarshal([]byte(text(res)), &desc))
	assert.Equal(t, cfg.Model.Priors, desc.Priors)
	assert.NotEmpty(t, desc.Nodes)
}
