// Package cmd defines the command-line interface for tribal.
package cmd

import (
	"github.com/huangsam/tribal/core/model"
	"github.com/huangsam/tribal/core/synth"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// nestedFlags maps flat flag names onto nested config keys.
var nestedFlags = map[string]string{
	"projects":       "generator.projects",
	"min-repos":      "generator.min-repos",
	"max-repos":      "generator.max-repos",
	"label-coverage": "generator.label.coverage",
	"chains":         "model.chains",
	"warmup":         "model.warmup",
	"draws":          "model.draws",
	"max-iterations": "model.max-iterations",
	"proxy":          "model.proxy",
	"credible-mass":  "model.credible-mass",
}

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(fixtureCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the fixture subcommands to the parent fixture command
	fixtureCmd.AddCommand(fixtureImportCmd)
	fixtureCmd.AddCommand(fixtureStatusCmd)
	fixtureCmd.AddCommand(fixtureClearCmd)
	fixtureCmd.AddCommand(fixtureMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.Uint64("seed", contract.DefaultSeed, "Random seed for the generator and the sampler")
	flags.IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	flags.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.String("output-dir", "", "Directory for dataset tables and parquet estimates")
	flags.String("samples-file", "", "Optional path for posterior samples (.parquet or .csv)")
	flags.String("metrics-file", "", "Optional path for a Prometheus textfile with run metrics")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	flags.String("profile", "", "Enable profiling and write profiles to files with this prefix")
	flags.String("fixture-backend", string(schema.NoneBackend), "Fixture backend: sqlite or mysql or postgresql or none")
	flags.String("fixture-db-connect", "", "Database connection string for the fixture store (sqlite path, or mysql/postgresql DSN)")
	flags.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	flags.String("emoji", "no", "Enable emojis in headers (yes/no/true/false/1/0)")
	flags.String("weights-override", "", "Heuristic weights (format: 'days_since_last_commit:0.3,open_issue_ratio:0.2,...')")
	flags.String("config", "", "Path to config file")

	// Generator and sampler settings, bound to nested config keys below
	flags.Int("projects", synth.DefaultProjects, "Number of projects to generate")
	flags.Int("min-repos", synth.DefaultMinRepos, "Minimum repositories per project")
	flags.Int("max-repos", synth.DefaultMaxRepos, "Maximum repositories per project")
	flags.Float64("label-coverage", synth.DefaultConfig().Label.Coverage, "Share of repositories carrying a risk proxy label")
	flags.Int("chains", model.DefaultChains, "Number of MCMC chains")
	flags.Int("warmup", model.DefaultWarmup, "Warmup iterations per chain")
	flags.Int("draws", model.DefaultDraws, "Kept draws per chain")
	flags.Int("max-iterations", model.DefaultMaxIterations, "Iteration budget per chain before giving up on convergence")
	flags.String("proxy", string(schema.AutoProxy), "Model outcome: auto or label or heuristic")
	flags.Float64("credible-mass", model.DefaultCredibleMass, "Mass of the central credible interval")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}
	for name, key := range nestedFlags {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			contract.LogFatal("Error binding flag "+name, err)
		}
	}

	// Bind all flags of fitCmd to Viper
	fitCmd.Flags().String("usage", "", "Usage table (csv, json or parquet)")
	fitCmd.Flags().String("metrics", "", "Metrics table (csv, json or parquet); requires --usage or --fixture-backend")
	if err := viper.BindPFlags(fitCmd.Flags()); err != nil {
		contract.LogFatal("Error binding fit flags", err)
	}

	// Bind all flags of fixtureMigrateCmd to Viper
	fixtureMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(fixtureMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding fixture migrate flags", err)
	}
}
