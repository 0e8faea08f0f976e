// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/tribal/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Tribal MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Tribal Risk Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}

	// --- 1. Tool: generate_dataset ---
	s.AddTool(mcp.NewTool("generate_dataset",
		mcp.WithDescription("Generate a reproducible synthetic dataset of projects, repositories, language usage and activity metrics."),
		mcp.WithNumber("seed", mcp.Description("Random seed. The same seed and settings always produce the same dataset.")),
		mcp.WithNumber("projects", mcp.Description("Number of projects to generate.")),
		mcp.WithNumber("min_repos", mcp.Description("Minimum repositories per project.")),
		mcp.WithNumber("max_repos", mcp.Description("Maximum repositories per project.")),
		mcp.WithBoolean("include_tables", mcp.Description("Return the full usage and metrics tables instead of a per-project summary.")),
	), h.handleGenerateDataset)

	// --- 2. Tool: estimate_risk ---
	s.AddTool(mcp.NewTool("estimate_risk",
		mcp.WithDescription("Fit the hierarchical risk model and return ranked project and repository risk with credible intervals."),
		mcp.WithString("usage_path", mcp.Description("Usage table (csv, json or parquet). Defaults to a generated dataset.")),
		mcp.WithString("metrics_path", mcp.Description("Metrics table (csv, json or parquet). Requires usage_path.")),
		mcp.WithNumber("seed", mcp.Description("Seed for the generator and the sampler.")),
		mcp.WithNumber("projects", mcp.Description("Number of projects when generating.")),
		mcp.WithString("proxy", mcp.Description("Outcome the model regresses on. Defaults to 'auto'."), mcp.Enum("auto", "label", "heuristic")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of ranked results returned.")),
	), h.handleEstimateRisk)

	// --- 3. Tool: describe_model ---
	s.AddTool(mcp.NewTool("describe_model",
		mcp.WithDescription("Describe the risk model: parameter graph, priors, link function, label bands and sampler settings."),
	), h.handleDescribeModel)

	return s
}

// StartMCPServer starts the Tribal MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, version string) error {
	s := NewMCPServer(baseCfg, version)
	return server.ServeStdio(s)
}
