// Command benchmark runs the synthetic cache workload harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv       Output results in CSV format (default: human-readable)
//	-json      Output results as JSON
//	-config    Cache configuration file (default: built-in example)
//	-count     Accesses per workload
//	-core      Run only the core workloads
//	-parallel  Simulate caches on separate goroutines
//
// Example:
//
//	# Run all workloads on the example caches
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/benchmarks"
	"github.com/sarchlab/cachesim/config"
)

func main() {
	// Parse flags
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as JSON")
	configPath := flag.String("config", "", "Cache configuration file")
	count := flag.Uint64("count", 1_000_000, "Accesses per workload")
	seed := flag.Int64("seed", 1, "Seed for workloads and random replacement")
	core := flag.Bool("core", false, "Run only the core workloads")
	parallel := flag.Bool("parallel", false, "Simulate caches on separate goroutines")
	flag.Parse()

	// Configure harness
	harnessConfig := benchmarks.DefaultConfig()
	harnessConfig.Count = *count
	harnessConfig.Seed = *seed
	harnessConfig.Parallel = *parallel
	harnessConfig.Output = os.Stdout

	if *configPath != "" {
		f, err := config.Load(*configPath)
		if err != nil {
			logrus.Fatalf("Error loading config: %v", err)
		}

		harnessConfig.Caches, err = f.CacheConfigs()
		if err != nil {
			logrus.Fatalf("Error loading config: %v", err)
		}
	}

	harness := benchmarks.NewHarness(harnessConfig)
	if *core {
		harness.AddWorkloads(benchmarks.GetCoreWorkloads())
	} else {
		harness.AddWorkloads(benchmarks.GetWorkloads())
	}

	human := !*csvOutput && !*jsonOutput
	if human {
		fmt.Println("Cachesim Workload Harness")
		fmt.Println("=========================")
		fmt.Printf("Caches:   %d\n", len(harnessConfig.Caches))
		fmt.Printf("Accesses: %d per workload\n", harnessConfig.Count)
		fmt.Printf("Parallel: %v\n", harnessConfig.Parallel)
		fmt.Println("")
	}

	results, err := harness.RunAll(context.Background())
	if err != nil {
		logrus.Fatalf("Benchmark failed: %v", err)
	}

	switch {
	case *csvOutput:
		harness.PrintCSV(results)
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			logrus.Fatalf("Error writing results: %v", err)
		}
	default:
		harness.PrintResults(results)

		fmt.Println("=== Summary ===")
		fmt.Println("")
		fmt.Println("Expected characteristics:")
		fmt.Println("- sequential: one miss per line on every cache")
		fmt.Println("- stride: conflict misses on direct-mapped and low-way caches")
		fmt.Println("- random: hit rate close to capacity / footprint")
		fmt.Println("- thrash: no hits on 8-way sets, near 100% on fully associative")
		fmt.Println("- loop: near 100% hit rate once the working set is loaded")
		fmt.Println("- mixed: hot reads hit, scattered writes mostly miss")
	}
}
