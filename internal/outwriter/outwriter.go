// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"

	"github.com/huangsam/tribal/internal/contract"
)

// headerWriter is where run headers go; results own stdout.
var headerWriter io.Writer = os.Stderr

// emoji returns prefix followed by a space when emojis are enabled.
func emoji(cfg *contract.Config, prefix string) string {
	if cfg.UseEmojis {
		return prefix + " "
	}
	return ""
}

// LogGenerateHeader prints a concise, 2-line header for a generator run.
func LogGenerateHeader(cfg *contract.Config) {
	g := cfg.Generator
	fmt.Fprintf(headerWriter, "%sGenerate: %d projects x %d-%d repositories (seed %d)\n",
		emoji(cfg, "🎲"), g.Projects, g.MinRepos, g.MaxRepos, cfg.Seed)
	fmt.Fprintf(headerWriter, "%sCatalog: %d languages, label coverage %.2f\n",
		emoji(cfg, "📚"), len(g.Languages), labelRate(cfg))
}

// LogFitHeader prints a concise, 2-line header for a fit.
func LogFitHeader(cfg *contract.Config, source string) {
	m := cfg.Model
	fmt.Fprintf(headerWriter, "%sData: %s (proxy: %s)\n", emoji(cfg, "🔎"), source, m.Proxy)
	fmt.Fprintf(headerWriter, "%sSampler: %d chains x (%d warmup + %d draws), seed %d\n",
		emoji(cfg, "⛓️ "), m.Chains, m.Warmup, m.Draws, m.Seed)
}

func labelRate(cfg *contract.Config) float64 {
	if !cfg.Generator.Label.Enabled {
		return 0
	}
	return cfg.Generator.Label.Coverage
}
