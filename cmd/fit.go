package cmd

import (
	"github.com/huangsam/tribal/core"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/spf13/cobra"
)

// fitCmd fits the risk model on an existing dataset.
var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit the risk model and rank projects and repositories.",
	Long: `Fit the hierarchical risk model and print ranked estimates with credible intervals.

The dataset comes from, in order of preference:
- --usage and --metrics tables
- a --usage table alone, with synthesized metrics
- the fixture store topology, when --fixture-backend is set
- the generator

The model regresses a standardized risk proxy on the seven metrics with
partially pooled project offsets. It fails with a convergence error rather
than report estimates from chains that have not mixed.

Examples:
  # Fit tables written by 'tribal generate'
  tribal fit --usage data/usage.csv --metrics data/metrics.csv

  # Use the heuristic score as the outcome and keep the posterior draws
  tribal fit --usage data/usage.parquet --metrics data/metrics.parquet \
    --proxy heuristic --samples-file draws.parquet

  # Fit the stored topology fixture
  tribal fit --fixture-backend sqlite --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot fit risk model", core.ExecuteFit)
	},
}

// runCmd generates a dataset and fits it in one process.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a dataset, fit the model and report in one step.",
	Long: `Generate a synthetic dataset and fit the risk model on it without
touching disk, unless --output-dir asks for the dataset tables.

Examples:
  # End-to-end with defaults
  tribal run

  # Larger run with run metrics for a textfile collector
  tribal run --projects 20 --chains 4 --metrics-file /var/lib/node_exporter/tribal.prom`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot run pipeline", core.ExecuteRun)
	},
}

// runExecutor runs a core executor with the shared config and exits on failure.
func runExecutor(failure string, execute core.ExecutorFunc) {
	if err := execute(rootCtx, cfg); err != nil {
		contract.LogFatal(failure, err)
	}
}
