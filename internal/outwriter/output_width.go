package outwriter

import (
	"os"

	"github.com/huangsam/tribal/internal/contract"
	"golang.org/x/term"
)

// Bounds of the name column in text tables.
const (
	minNameWidth = 15
	maxNameWidth = 60
)

// terminalWidth returns the --width override, else the detected terminal
// width, else 80.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detected
}

// GetMaxTableNameWidth calculates how wide the repository or project name
// column of a text table may be, given the space the other columns take.
func GetMaxTableNameWidth(cfg *contract.Config, fixedColumns int) int {
	// Reserve generous space for table borders, separators, and padding
	available := terminalWidth(cfg) - fixedColumns - 20
	return max(minNameWidth, min(available, maxNameWidth))
}
