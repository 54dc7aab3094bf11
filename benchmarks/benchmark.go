// Command benchmark times insert and select statements against a scratch
// database file and writes a JSON report.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"

	"pagedb/pkg/database"
	"pagedb/pkg/logging"
)

// BenchmarkResult captures timing statistics for one benchmark.
type BenchmarkResult struct {
	Name              string        `json:"name"`
	Statement         string        `json:"statement"` // first statement run, as an example
	Iterations        int           `json:"iterations"`
	TotalDuration     time.Duration `json:"total_duration_ns"`
	AvgDuration       time.Duration `json:"avg_duration_ns"`
	MinDuration       time.Duration `json:"min_duration_ns"`
	MaxDuration       time.Duration `json:"max_duration_ns"`
	MedianDuration    time.Duration `json:"median_duration_ns"`
	P95Duration       time.Duration `json:"p95_duration_ns"`
	P99Duration       time.Duration `json:"p99_duration_ns"`
	QueriesPerSecond  float64       `json:"queries_per_second"`
	ConcurrentQueries int           `json:"concurrent_queries"`
	SuccessCount      int           `json:"success_count"`
	ErrorCount        int           `json:"error_count"`
	ErrorSamples      []string      `json:"error_samples"`
	Timestamp         time.Time     `json:"timestamp"`
}

// BenchmarkReport aggregates results from all benchmarks.
type BenchmarkReport struct {
	StartTime     time.Time             `json:"start_time"`
	EndTime       time.Time             `json:"end_time"`
	TotalDuration time.Duration         `json:"total_duration"`
	Results       []BenchmarkResult     `json:"results"`
	DataDir       string                `json:"data_dir"`
	Final         database.DatabaseInfo `json:"final_stats"`
}

var CLI struct {
	Output     string `name:"output" env:"BENCHMARK_OUTPUT" default:"./benchmark-results" type:"path" help:"Directory for the JSON report"`
	DataDir    string `name:"data-dir" env:"DATA_DIR" type:"path" help:"Directory for scratch database files (default: a temporary directory)"`
	Rows       int    `name:"rows" env:"BENCHMARK_ROWS" default:"1000" help:"Rows inserted per insert benchmark"`
	Iterations int    `name:"iterations" env:"BENCHMARK_ITERATIONS" default:"200" help:"Iterations per read benchmark"`
	Concurrent int    `name:"concurrent" env:"BENCHMARK_CONCURRENT_QUERIES" default:"8" help:"Parallel statements in concurrent runs"`
	MaxPages   int    `name:"max-pages" default:"400" help:"Page limit of the scratch files"`
}

// statementFunc returns the statement for iteration i.
type statementFunc func(i int) string

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("benchmark"),
		kong.Description("Time pagedb statements"),
		kong.UsageOnError(),
	)
	log := logging.WithComponent("benchmark")

	dataDir := CLI.DataDir
	if dataDir == "" {
		dir, err := os.MkdirTemp("", "pagedb-bench-*")
		ctx.FatalIfErrorf(err)
		defer os.RemoveAll(dir)
		dataDir = dir
	}
	ctx.FatalIfErrorf(os.MkdirAll(dataDir, 0o750))
	ctx.FatalIfErrorf(os.MkdirAll(CLI.Output, 0o750))

	report := BenchmarkReport{StartTime: time.Now(), DataDir: dataDir}
	cfg := database.Config{MaxPages: CLI.MaxPages}

	// Inserts in ascending and shuffled key order go to separate files.
	seq, err := database.Open(filepath.Join(dataDir, "sequential.db"), cfg)
	ctx.FatalIfErrorf(err)
	report.Results = append(report.Results,
		runBenchmark(seq, "INSERT ascending", insertStatement(identity), CLI.Rows, 1))

	order := rand.Perm(CLI.Rows)
	shuffled, err := database.Open(filepath.Join(dataDir, "shuffled.db"), cfg)
	ctx.FatalIfErrorf(err)
	report.Results = append(report.Results,
		runBenchmark(shuffled, "INSERT shuffled", insertStatement(func(i int) int { return order[i] + 1 }), CLI.Rows, 1))
	ctx.FatalIfErrorf(shuffled.Close())

	reads := []struct {
		name string
		stmt string
	}{
		{"SELECT all", "select"},
		{"Tree print", ".btree"},
		{"Page summary", ".pages"},
	}
	for _, r := range reads {
		fixed := func(int) string { return r.stmt }
		report.Results = append(report.Results, runBenchmark(seq, r.name, fixed, CLI.Iterations, 1))
		report.Results = append(report.Results, runBenchmark(seq, r.name+" (Concurrent)", fixed, CLI.Iterations, CLI.Concurrent))
	}

	report.Final, err = seq.GetStatistics()
	ctx.FatalIfErrorf(err)
	ctx.FatalIfErrorf(seq.Close())

	report.EndTime = time.Now()
	report.TotalDuration = report.EndTime.Sub(report.StartTime)

	for _, result := range report.Results {
		printBenchmarkResult(os.Stdout, result)
	}

	jsonFile := filepath.Join(CLI.Output, fmt.Sprintf("benchmark_report_%s.json", time.Now().Format("20060102_150405")))
	ctx.FatalIfErrorf(saveJSONReport(report, jsonFile))
	log.Info("report saved", "path", jsonFile, "duration", report.TotalDuration)
}

func identity(i int) int { return i + 1 }

func insertStatement(id func(i int) int) statementFunc {
	return func(i int) string {
		n := id(i)
		return fmt.Sprintf("insert %d user%d person%d@example.com", n, n, n)
	}
}

// runBenchmark executes next(0..iterations-1) with at most concurrent
// statements in flight and summarizes the timings.
func runBenchmark(db *database.Database, name string, next statementFunc, iterations, concurrent int) BenchmarkResult {
	durations := make([]time.Duration, 0, iterations)
	var mu sync.Mutex
	var wg sync.WaitGroup

	successCount := 0
	errorCount := 0
	errorSamples := make([]string, 0, 5)
	startTime := time.Now()

	sem := make(chan struct{}, max(concurrent, 1))

	for i := range iterations {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			queryStart := time.Now()
			_, err := db.ExecuteQuery(next(i))
			duration := time.Since(queryStart)

			mu.Lock()
			durations = append(durations, duration)
			if err != nil {
				errorCount++
				if len(errorSamples) < 5 {
					errorSamples = append(errorSamples, err.Error())
				}
			} else {
				successCount++
			}
			mu.Unlock()
		}()
	}

	wg.Wait()
	totalDuration := time.Since(startTime)

	result := BenchmarkResult{
		Name:              name,
		Statement:         next(0),
		Iterations:        iterations,
		TotalDuration:     totalDuration,
		ConcurrentQueries: concurrent,
		SuccessCount:      successCount,
		ErrorCount:        errorCount,
		ErrorSamples:      errorSamples,
		Timestamp:         time.Now(),
	}
	if len(durations) == 0 {
		return result
	}

	slices.Sort(durations)

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	result.AvgDuration = sum / time.Duration(len(durations))
	result.MinDuration = durations[0]
	result.MaxDuration = durations[len(durations)-1]
	result.MedianDuration = durations[len(durations)/2]
	result.P95Duration = durations[int(float64(len(durations))*0.95)]
	result.P99Duration = durations[int(float64(len(durations))*0.99)]
	result.QueriesPerSecond = float64(iterations) / totalDuration.Seconds()
	return result
}

// formatDuration formats a duration with units suited to its size.
// Examples: 1.23ms, 456.78µs, 12.34s
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

func printBenchmarkResult(w *os.File, result BenchmarkResult) {
	successRate := 0.0
	if result.Iterations > 0 {
		successRate = float64(result.SuccessCount) / float64(result.Iterations) * 100
	}

	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(w, "  %s (%d in flight)\n", result.Name, result.ConcurrentQueries)
	fmt.Fprintf(w, "  ┌─ Results\n")
	fmt.Fprintf(w, "  │  Total Time:        %s\n", formatDuration(result.TotalDuration))
	fmt.Fprintf(w, "  │  Avg per Statement: %s\n", formatDuration(result.AvgDuration))
	fmt.Fprintf(w, "  │  Min / Max:         %s / %s\n", formatDuration(result.MinDuration), formatDuration(result.MaxDuration))
	fmt.Fprintf(w, "  │  Median (P50):      %s\n", formatDuration(result.MedianDuration))
	fmt.Fprintf(w, "  │  P95 / P99:         %s / %s\n", formatDuration(result.P95Duration), formatDuration(result.P99Duration))
	fmt.Fprintf(w, "  │  Throughput:        %.0f statements/sec\n", result.QueriesPerSecond)
	fmt.Fprintf(w, "  │  Success Rate:      %.1f%% (%d/%d)\n", successRate, result.SuccessCount, result.Iterations)
	for _, sample := range result.ErrorSamples {
		fmt.Fprintf(w, "  │  ⚠ %s\n", sample)
	}
	fmt.Fprintf(w, "  └─\n")
}

// saveJSONReport serializes the benchmark report to a JSON file.
func saveJSONReport(report BenchmarkReport, filename string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
