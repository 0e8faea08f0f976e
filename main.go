// main is the entry point for the tribal CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/tribal/cmd"
)

func main() {
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		fmt.Fprintln(os.Stderr, "Warning: failed to stop profiling:", stopErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
