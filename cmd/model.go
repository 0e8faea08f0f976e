package cmd

import (
	"github.com/huangsam/tribal/core"
	"github.com/spf13/cobra"
)

// modelCmd displays the structure of the risk model.
var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Display the parameter graph, priors and link of the risk model",
	Long: `Show the risk model without fitting it:
- the parameter graph for one project holding one repository
- prior distributions, configured under model.priors
- expected weight signs and heuristic weights
- the probit link to the 0-100 risk index and its label bands
- sampler and convergence settings

No dataset is read - this is purely informational.

Examples:
  # Show the default model
  tribal model

  # Export the graph as csv
  tribal model --output csv --output-file model.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot display model", core.ExecuteModelInfo)
	},
}
