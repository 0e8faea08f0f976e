package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/tribal/core"
	"github.com/huangsam/tribal/core/model"
	"github.com/huangsam/tribal/core/synth"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/internal/outwriter"
	"github.com/huangsam/tribal/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

// datasetResult is the generate_dataset payload.
type datasetResult struct {
	Seed         uint64                     `json:"seed"`
	Repositories int                        `json:"repositories"`
	UsageRows    int                        `json:"usage_rows"`
	Labeled      int                        `json:"labeled"`
	Projects     []schema.ProjectSummary    `json:"projects"`
	Usage        []schema.LanguageUsage     `json:"usage,omitempty"`
	Metrics      []schema.RepositoryMetrics `json:"metrics,omitempty"`
}

// applyGeneratorArgs overrides generator settings from tool arguments and revalidates them.
func applyGeneratorArgs(cfg *contract.Config, request mcp.CallToolRequest) error {
	if s := request.GetInt("seed", 0); s > 0 {
		cfg.Seed = uint64(s)
		cfg.Model.Seed = uint64(s)
	}
	if p := request.GetInt("projects", 0); p > 0 {
		cfg.Generator.Projects = p
	}
	if r := request.GetInt("min_repos", 0); r > 0 {
		cfg.Generator.MinRepos = r
	}
	if r := request.GetInt("max_repos", 0); r > 0 {
		cfg.Generator.MaxRepos = r
	}
	return synth.Validate(cfg.Generator)
}

func (h *toolHandler) handleGenerateDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyGeneratorArgs(cfg, request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid generator parameters: %v", err)), nil
	}

	data, err := core.GetGenerateResults(core.WithSuppressHeader(ctx), cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	result := datasetResult{
		Seed:         cfg.Seed,
		Repositories: len(data.Metrics),
		UsageRows:    len(data.Usage),
		Labeled:      data.LabelCount(),
		Projects:     data.Summary(),
	}
	if request.GetBool("include_tables", false) {
		result.Usage = data.Usage
		result.Metrics = data.Metrics
	}
	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleEstimateRisk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyGeneratorArgs(cfg, request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid generator parameters: %v", err)), nil
	}
	cfg.UsagePath = strings.TrimSpace(request.GetString("usage_path", cfg.UsagePath))
	cfg.MetricsPath = strings.TrimSpace(request.GetString("metrics_path", cfg.MetricsPath))
	if cfg.MetricsPath != "" && cfg.UsagePath == "" {
		return mcp.NewToolResultError("metrics_path requires usage_path"), nil
	}
	if p := request.GetString("proxy", ""); p != "" {
		cfg.Model.Proxy = schema.ProxySource(strings.ToLower(p))
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}
	if err := cfg.Model.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid model parameters: %v", err)), nil
	}

	result, _, err := core.GetFitResults(core.WithSuppressHeader(ctx), cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("estimation failed: %v", err)), nil
	}

	report := outwriter.NewFitReport(core.RankSummary(result.Summary(), cfg.ResultLimit))
	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleDescribeModel(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, _ := json.MarshalIndent(model.Describe(h.baseCfg.Model), "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
