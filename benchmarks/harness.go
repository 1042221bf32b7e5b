// Package benchmarks runs synthetic access patterns through cache
// configurations to compare their behavior and measure simulator speed.
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/simulation"
)

// BenchmarkResult holds the results of one workload on one cache.
type BenchmarkResult struct {
	// Workload identifies the access pattern
	Workload string `json:"workload"`

	// Description explains what the workload stresses
	Description string `json:"description"`

	// Cache is the name of the simulated cache
	Cache string `json:"cache"`

	// Policy is the replacement policy in effect
	Policy string `json:"policy"`

	// Accesses is the number of records simulated
	Accesses uint64 `json:"accesses"`

	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`

	// HitRate is hits/(hits+misses); nil when nothing was accessed
	HitRate *float64 `json:"hit_rate"`

	// WallTime is the time taken to run the workload on all caches
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Caches are the organizations every workload runs on
	Caches []cache.Config

	// Count is the number of accesses per workload
	Count uint64

	// Seed drives both the workload generators and random replacement
	Seed int64

	// Parallel simulates caches on separate goroutines
	Parallel bool

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives progress messages (default: logrus standard logger)
	Logger *logrus.Logger
}

// DefaultConfig returns a harness configuration using the example caches.
func DefaultConfig() HarnessConfig {
	configs, err := config.Example().CacheConfigs()
	if err != nil {
		panic(err)
	}

	return HarnessConfig{
		Caches: configs,
		Count:  1_000_000,
		Seed:   1,
		Output: os.Stdout,
	}
}

// Harness runs workloads and reports results.
type Harness struct {
	config    HarnessConfig
	workloads []Workload
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	return &Harness{
		config:    config,
		workloads: []Workload{},
	}
}

// AddWorkload adds a workload to the harness.
func (h *Harness) AddWorkload(w Workload) {
	h.workloads = append(h.workloads, w)
}

// AddWorkloads adds multiple workloads to the harness.
func (h *Harness) AddWorkloads(workloads []Workload) {
	h.workloads = append(h.workloads, workloads...)
}

// RunAll executes all workloads and returns one result per workload and
// cache.
func (h *Harness) RunAll(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.workloads)*len(h.config.Caches))

	for _, w := range h.workloads {
		r, err := h.runWorkload(ctx, w)
		if err != nil {
			return results, fmt.Errorf("workload %s: %w", w.Name, err)
		}

		results = append(results, r...)
	}

	return results, nil
}

func (h *Harness) runWorkload(ctx context.Context, w Workload) ([]BenchmarkResult, error) {
	// Fresh caches for every workload.
	caches, err := simulation.BuildCaches(h.config.Caches, h.config.Seed)
	if err != nil {
		return nil, err
	}

	opts := []simulation.Option{
		simulation.WithLogger(h.config.Logger),
		simulation.WithProgressInterval(0),
	}
	if h.config.Parallel {
		opts = append(opts, simulation.WithParallel())
	}

	sim := simulation.New(caches, opts...)

	start := time.Now()
	result, err := sim.Run(ctx, NewSource(w, h.config.Count, h.config.Seed))
	wallTime := time.Since(start)

	if err != nil {
		return nil, err
	}

	results := make([]BenchmarkResult, 0, len(caches))
	for _, c := range caches {
		stats := c.Stats()

		var hitRate *float64
		if rate, ok := stats.HitRate(); ok {
			hitRate = &rate
		}

		results = append(results, BenchmarkResult{
			Workload:    w.Name,
			Description: w.Description,
			Cache:       c.Name(),
			Policy:      c.PolicyName(),
			Accesses:    result.Records,
			Hits:        stats.Hits,
			Misses:      stats.Misses,
			Evictions:   stats.Evictions,
			HitRate:     hitRate,
			WallTime:    wallTime,
		})
	}

	return results, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Cache Workload Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	workload := ""
	for _, r := range results {
		if r.Workload != workload {
			workload = r.Workload
			_, _ = fmt.Fprintf(h.config.Output, "Workload: %s\n", r.Workload)
			_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
			_, _ = fmt.Fprintf(h.config.Output, "  Accesses:    %d\n", r.Accesses)
			_, _ = fmt.Fprintf(h.config.Output, "  Wall Time:   %v\n", r.WallTime)
			if r.WallTime > 0 {
				_, _ = fmt.Fprintf(h.config.Output, "  Accesses/s:  %.0f\n",
					float64(r.Accesses)/r.WallTime.Seconds())
			}
		}

		_, _ = fmt.Fprintf(h.config.Output, "  --- %s (%s) ---\n", r.Cache, r.Policy)
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:      %d\n", r.Hits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses:    %d\n", r.Misses)
		_, _ = fmt.Fprintf(h.config.Output, "  Evictions: %d\n", r.Evictions)
		_, _ = fmt.Fprintf(h.config.Output, "  Hit Rate:  %s\n", formatPercent(r.HitRate))
	}

	_, _ = fmt.Fprintln(h.config.Output, "")
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"workload,cache,policy,accesses,hits,misses,evictions,hit_rate,wall_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%s,%d,%d,%d,%d,%s,%d\n",
			r.Workload,
			r.Cache,
			r.Policy,
			r.Accesses,
			r.Hits,
			r.Misses,
			r.Evictions,
			formatRate(r.HitRate),
			r.WallTime.Nanoseconds(),
		)
	}
}

// formatPercent renders a hit rate for humans; caches that saw no access
// have none.
func formatPercent(rate *float64) string {
	if rate == nil {
		return "N/A"
	}

	return fmt.Sprintf("%.2f%%", *rate*100)
}

// formatRate leaves the CSV field empty when there is no hit rate.
func formatRate(rate *float64) string {
	if rate == nil {
		return ""
	}

	return fmt.Sprintf("%.4f", *rate)
}

// PrintJSON outputs benchmark results as a JSON array.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	enc := json.NewEncoder(h.config.Output)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}
