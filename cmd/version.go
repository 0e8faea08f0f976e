package cmd

import (
	"runtime"

	"github.com/huangsam/tribal/core/model"
	"github.com/spf13/cobra"
)

// versionCmd shows build details and the sampler defaults baked into this binary.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tribal.",
	Long: `Display version information for bug reports:
release version, git commit, build timestamp, Go runtime and platform,
and the default sampler settings compiled into the binary.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("tribal CLI\n")
		cmd.Printf("  Version:  %s\n", version)
		cmd.Printf("  Commit:   %s\n", commit)
		cmd.Printf("  Built:    %s\n", date)
		cmd.Printf("  Runtime:  %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		cmd.Printf("  Sampler:  %d chains x (%d warmup + %d draws), max R-hat %.2f\n",
			model.DefaultChains, model.DefaultWarmup, model.DefaultDraws, model.DefaultMaxRhat)
	},
}
