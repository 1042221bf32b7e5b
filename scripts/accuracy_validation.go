// Package main provides accuracy validation for performance optimizations.
// Ensures that parallel simulation and line splitting preserve simulation
// correctness.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/benchmarks"
	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/simulation"
)

const accessesPerWorkload = 200_000

var configs = []cache.Config{
	{Name: "direct", Size: 32 * 1024, LineSize: 64, Associativity: 1},
	{Name: "rr", Size: 32 * 1024, LineSize: 64, Associativity: 8, Policy: cache.RoundRobin},
	{Name: "lru", Size: 32 * 1024, LineSize: 64, Associativity: 8, Policy: cache.LRU},
	{Name: "random", Size: 32 * 1024, LineSize: 64, Associativity: 8, Policy: cache.Random},
	{Name: "lfu", Size: 32 * 1024, LineSize: 64, Associativity: 8, Policy: cache.LFU},
	{Name: "full", Size: 64 * 1024, LineSize: 128, Associativity: 512, Policy: cache.LRU},
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}

func simulate(w benchmarks.Workload, opts ...simulation.Option) ([]cache.Statistics, error) {
	caches, err := simulation.BuildCaches(configs, 1)
	if err != nil {
		return nil, err
	}

	opts = append(opts, simulation.WithLogger(quietLogger()))

	_, err = simulation.New(caches, opts...).
		Run(context.Background(), benchmarks.NewSource(w, accessesPerWorkload, 1))
	if err != nil {
		return nil, err
	}

	stats := make([]cache.Statistics, len(caches))
	for i, c := range caches {
		stats[i] = c.Stats()
	}

	return stats, nil
}

// testParallelMatchesSequential validates that fanning records out to one
// goroutine per cache gives the same counters as the sequential loop.
func testParallelMatchesSequential() bool {
	fmt.Println("Testing parallel simulation accuracy...")

	passed := true
	for _, w := range benchmarks.GetWorkloads() {
		seq, err := simulate(w)
		if err != nil {
			fmt.Printf("❌ %s: sequential run failed: %v\n", w.Name, err)
			return false
		}

		par, err := simulate(w, simulation.WithParallel())
		if err != nil {
			fmt.Printf("❌ %s: parallel run failed: %v\n", w.Name, err)
			return false
		}

		ok := true
		for i := range seq {
			if seq[i] != par[i] {
				fmt.Printf("❌ %s/%s: counters differ\n", w.Name, configs[i].Name)
				fmt.Printf("  Sequential: %+v\n", seq[i])
				fmt.Printf("  Parallel:   %+v\n", par[i])
				ok = false
			}
		}

		passed = passed && ok
		if ok {
			fmt.Printf("✅ %s: parallel counters identical\n", w.Name)
		}
	}

	return passed
}

// testCounterInvariants validates hits+misses == accesses and that
// evictions never exceed misses.
func testCounterInvariants() bool {
	fmt.Println("\nTesting counter invariants...")

	passed := true
	for _, w := range benchmarks.GetWorkloads() {
		stats, err := simulate(w, simulation.WithSplitAccesses())
		if err != nil {
			fmt.Printf("❌ %s: run failed: %v\n", w.Name, err)
			return false
		}

		ok := true
		for i, s := range stats {
			if s.Hits+s.Misses != s.Accesses() || s.Evictions > s.Misses {
				fmt.Printf("❌ %s/%s: inconsistent counters %+v\n", w.Name, configs[i].Name, s)
				ok = false
			}
		}

		passed = passed && ok
		if ok {
			fmt.Printf("✅ %s: counters consistent\n", w.Name)
		}
	}

	return passed
}

// testReplayDeterminism validates that a replay with the same seed gives
// the same counters, including for random replacement.
func testReplayDeterminism() bool {
	fmt.Println("\nTesting replay determinism...")

	w, _ := benchmarks.LookupWorkload("mixed")

	first, err := simulate(w)
	if err != nil {
		fmt.Printf("❌ first run failed: %v\n", err)
		return false
	}

	second, err := simulate(w)
	if err != nil {
		fmt.Printf("❌ second run failed: %v\n", err)
		return false
	}

	for i := range first {
		if first[i] != second[i] {
			fmt.Printf("❌ %s: replay differs\n", configs[i].Name)
			return false
		}
	}

	fmt.Println("✅ Replays identical")

	return true
}

func main() {
	fmt.Println("Cachesim Accuracy Validation - Performance Optimization")
	fmt.Println("=======================================================")

	allPassed := true
	allPassed = testParallelMatchesSequential() && allPassed
	allPassed = testCounterInvariants() && allPassed
	allPassed = testReplayDeterminism() && allPassed

	fmt.Println("\n=======================================================")
	if allPassed {
		fmt.Println("🎉 ALL ACCURACY TESTS PASSED")
		fmt.Println("✅ Performance optimizations preserve simulation correctness")
		os.Exit(0)
	} else {
		fmt.Println("❌ ACCURACY TESTS FAILED")
		fmt.Println("🚨 Performance optimizations may have introduced errors")
		os.Exit(1)
	}
}
