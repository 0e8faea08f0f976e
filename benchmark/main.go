// Package main provides a performance benchmarking tool for the tribal CLI.
// It measures generate and end-to-end run times across dataset sizes,
// running each case multiple times, treating the first successful run as cold and averaging the rest as warm,
// and writes a CSV summary for performance analysis and documentation.
//
// Prerequisites:
// - tribal binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated tables and fixture databases
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one benchmark case.
type BenchmarkResult struct {
	Size     string
	Command  string
	ColdTime string
	WarmTime string
}

// DatasetSize describes one generator shape to benchmark.
type DatasetSize struct {
	Name     string
	Projects int
	MinRepos int
	MaxRepos int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir string
	Timeout time.Duration
	Runs    int
	Chains  int
	Sizes   []DatasetSize
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir: os.Args[1],
		Timeout: 10 * time.Minute,
		Runs:    4,
		Chains:  4,
		Sizes: []DatasetSize{
			{Name: "small", Projects: 5, MinRepos: 3, MaxRepos: 8},
			{Name: "medium", Projects: 20, MinRepos: 5, MaxRepos: 20},
			{Name: "large", Projects: 60, MinRepos: 10, MaxRepos: 40},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the tribal binary exists and the work dir is usable.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("tribal"); err != nil {
		return errors.New("tribal binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// runBenchmarks executes every command for every dataset size.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %v timeout, %d runs, %d chains\n",
		len(config.Sizes), config.Timeout, config.Runs, config.Chains)

	for _, size := range config.Sizes {
		fmt.Printf("Benchmarking %s dataset\n", size.Name)
		dataDir := filepath.Join(config.WorkDir, size.Name)
		shape := []string{
			"--projects", strconv.Itoa(size.Projects),
			"--min-repos", strconv.Itoa(size.MinRepos),
			"--max-repos", strconv.Itoa(size.MaxRepos),
		}

		generate := append([]string{"generate", "--output", "parquet", "--output-dir", dataDir}, shape...)
		results = append(results, runBenchmarkSuite(config, size.Name, "generate", generate, ""))

		fit := append([]string{
			"fit", "--chains", strconv.Itoa(config.Chains),
			"--usage", filepath.Join(dataDir, "usage.parquet"),
			"--metrics", filepath.Join(dataDir, "metrics.parquet"),
		}, shape...)
		results = append(results, runBenchmarkSuite(config, size.Name, "fit", fit, "completed in"))

		run := append([]string{"run", "--chains", strconv.Itoa(config.Chains)}, shape...)
		results = append(results, runBenchmarkSuite(config, size.Name, "run", run, "completed in"))
	}

	return results
}

// runBenchmarkSuite times one command and formats its cold and warm averages.
func runBenchmarkSuite(config BenchmarkConfig, size, command string, args []string, successPhrase string) BenchmarkResult {
	fmt.Printf("Running %s on %s (%d runs)\n", command, size, config.Runs)

	cold, warm := runBenchmark(config, args, successPhrase)

	coldTimeStr := "TIMEOUT"
	if cold > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", cold)
	}
	warmTimeStr := "TIMEOUT"
	if len(warm) > 0 {
		var sum float64
		for _, t := range warm {
			sum += t
		}
		warmTimeStr = fmt.Sprintf("%.3fs", sum/float64(len(warm)))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTimeStr, warmTimeStr)
	return BenchmarkResult{Size: size, Command: command, ColdTime: coldTimeStr, WarmTime: warmTimeStr}
}

// runBenchmark executes a tribal command several times and returns the cold time and warm times.
func runBenchmark(config BenchmarkConfig, args []string, successPhrase string) (coldTime float64, warmTimes []float64) {
	var times []float64
	for range config.Runs {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "tribal", args...).CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output, successPhrase) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion.
func isSuccess(output []byte, phrase string) bool {
	return phrase == "" || strings.Contains(string(output), phrase)
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("tribal_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"size", "cmd", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Size, result.Command, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range []string{"generate", "fit", "run"} {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-8s: Cold: %s, Warm: %s\n", result.Size, result.ColdTime, result.WarmTime)
			}
		}
	}
}
