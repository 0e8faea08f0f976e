package cmd

import (
	"github.com/huangsam/tribal/core"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/spf13/cobra"
)

// generateCmd draws a synthetic dataset.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a reproducible synthetic repository dataset.",
	Long: `Generate projects, repositories, language usage edges and activity metrics.

Languages are drawn from a popularity-weighted catalog with an affinity model,
byte counts follow a skewed split, and the seven activity metrics are coupled
to repository size, age and a shared project effect. The same seed and config
always produce byte-identical tables.

Text output prints one summary row per project. Other formats write
usage.<ext> and metrics.<ext> into --output-dir.

Examples:
  # Preview a dataset
  tribal generate --projects 8

  # Write csv tables for another tool
  tribal generate --output csv --output-dir ./data --seed 7

  # Write parquet tables without labels
  tribal generate --output parquet --output-dir ./data --label-coverage 0`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteGenerate(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot generate dataset", err)
		}
	},
}
