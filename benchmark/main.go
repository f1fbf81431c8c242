// Package main provides a performance benchmarking tool for the sprinthealth CLI.
// It measures how long reports take without a cache, on a cold cache and on a
// warm cache, running each phase multiple times, and writes the timings to CSV.
//
// Prerequisites:
// - sprinthealth binary installed and available in PATH
// - A fixture file describing the projects to report on
//
// Usage: go run benchmark/main.go <fixture-file> <project-id>...
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Fixture     string
	ProjectIDs  []string
	CacheFile   string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
}

// benchmarkCommands maps a command label to its extra arguments.
var benchmarkCommands = []struct {
	Name string
	Args []string
}{
	{"report", nil},
	{"report-json", []string{"--output", "json"}},
	{"report-prometheus", []string{"--output", "prometheus"}},
}

func main() {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: %s <fixture-file> <project-id>...\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		Fixture:     os.Args[1],
		ProjectIDs:  os.Args[2:],
		CacheFile:   filepath.Join(os.TempDir(), "sprinthealth_benchmark_cache.db"),
		Timeout:     2 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := make([]BenchmarkResult, 0, len(benchmarkCommands))
	for _, c := range benchmarkCommands {
		results = append(results, runBenchmarkSuite(config, c.Name, c.Args))
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the binary and the fixture exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("sprinthealth"); err != nil {
		return fmt.Errorf("sprinthealth binary not found in PATH")
	}
	if _, err := os.Stat(config.Fixture); err != nil {
		return fmt.Errorf("fixture %s not readable: %w", config.Fixture, err)
	}
	return nil
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, name string, extraArgs []string) BenchmarkResult {
	fmt.Printf("Running %s for %s\n", name, strings.Join(config.ProjectIDs, ", "))

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, extraArgs, cacheBackend, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs on a fresh SQLite file
	_ = os.Remove(config.CacheFile)
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Command:     name,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a report command multiple times with the given cache backend
// and returns the cold time and the warm times
func runBenchmark(config BenchmarkConfig, extraArgs []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{"report"}, config.ProjectIDs...)
	args = append(args,
		"--source", "fixture",
		"--source-connect", config.Fixture,
		"--cache-backend", cacheBackend,
		"--cache-db-connect", config.CacheFile,
		"--output-file", os.DevNull,
	)
	args = append(args, extraArgs...)

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("sprinthealth", args...)

		done := make(chan error, 1)
		go func() {
			done <- cmd.Run()
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("sprinthealth_benchmark_%s.csv", timestamp))

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

	if err := writer.Write([]string{"cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-18s: No-cache: %s, Cold: %s, Warm: %s\n", result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
