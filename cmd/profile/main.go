// Package main provides a profiling wrapper for cachesim to identify
// performance bottlenecks.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/benchmarks"
	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/sarchlab/cachesim/trace"
)

var (
	configPath = flag.String("config", "", "Cache configuration file (default: built-in example)")
	workload   = flag.String("workload", "random", "Synthetic workload to run when no trace is given")
	count      = flag.Uint64("count", 10_000_000, "Accesses for synthetic workloads")
	parallel   = flag.Bool("parallel", false, "Simulate caches on separate goroutines")
	split      = flag.Bool("split-accesses", false, "Access every line an access spans")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 5*time.Minute, "max duration to run (for profiling)")
)

func main() {
	flag.Parse()

	if flag.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] [trace]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	caches, err := buildCaches()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building caches: %v\n", err)
		os.Exit(1)
	}

	source, closeSource, err := openSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening source: %v\n", err)
		os.Exit(1)
	}
	defer closeSource()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	opts := []simulation.Option{simulation.WithLogger(logger)}
	if *parallel {
		opts = append(opts, simulation.WithParallel())
	}
	if *split {
		opts = append(opts, simulation.WithSplitAccesses())
	}

	start := time.Now()
	result, err := simulation.New(caches, opts...).Run(ctx, source)
	elapsed := time.Since(start)

	if err != nil {
		fmt.Printf("\nStopped early: %v\n", err)
	}

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Records simulated: %d\n", result.Records)
	fmt.Printf("Caches: %d\n", len(caches))
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if result.Records > 0 {
		fmt.Printf("Records/second: %.0f\n", float64(result.Records)/elapsed.Seconds())
	}
}

func buildCaches() ([]*cache.Cache, error) {
	f := config.Example()

	if *configPath != "" {
		var err error

		f, err = config.Load(*configPath)
		if err != nil {
			return nil, err
		}
	}

	configs, err := f.CacheConfigs()
	if err != nil {
		return nil, err
	}

	return simulation.BuildCaches(configs, 1)
}

// openSource reads the trace given on the command line, or generates the
// selected workload.
func openSource() (simulation.RecordSource, func(), error) {
	if flag.NArg() == 1 {
		r, err := trace.Open(flag.Arg(0))
		if err != nil {
			return nil, nil, err
		}

		fmt.Printf("Trace: %s\n", flag.Arg(0))

		return r, func() { _ = r.Close() }, nil
	}

	w, ok := benchmarks.LookupWorkload(*workload)
	if !ok {
		return nil, nil, fmt.Errorf("unknown workload %q", *workload)
	}

	fmt.Printf("Workload: %s (%d accesses)\n", w.Name, *count)

	return benchmarks.NewSource(w, *count, 1), func() {}, nil
}
