// Package report turns simulation results into text, JSON, or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/simulation"
)

// Format selects how a report is rendered.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}

	return "", fmt.Errorf("unknown report format %q", s)
}

// CacheReport holds the results of one cache.
type CacheReport struct {
	// Name identifies the cache
	Name string `json:"name" yaml:"name"`

	// Kind is direct, full, or Nway
	Kind string `json:"kind" yaml:"kind"`

	Size          uint64 `json:"size" yaml:"size"`
	LineSize      uint64 `json:"line_size" yaml:"line_size"`
	Associativity int    `json:"associativity" yaml:"associativity"`
	Sets          int    `json:"sets" yaml:"sets"`
	Policy        string `json:"policy" yaml:"policy"`

	Hits      uint64 `json:"hits" yaml:"hits"`
	Misses    uint64 `json:"misses" yaml:"misses"`
	Evictions uint64 `json:"evictions" yaml:"evictions"`
	Reads     uint64 `json:"reads" yaml:"reads"`
	Writes    uint64 `json:"writes" yaml:"writes"`

	// HitRate is hits/(hits+misses), nil when the cache saw no accesses
	HitRate *float64 `json:"hit_rate" yaml:"hit_rate"`
}

// Report holds the results of a run.
type Report struct {
	// Records is the number of trace records simulated
	Records uint64 `json:"records" yaml:"records"`

	// Skipped is the number of malformed records skipped
	Skipped uint64 `json:"skipped" yaml:"skipped"`

	// Complete is false when the run stopped before the end of the trace
	Complete bool `json:"complete" yaml:"complete"`

	Caches []CacheReport `json:"caches" yaml:"caches"`
}

// Build collects the report of a run over caches.
func Build(result simulation.Result, caches []*cache.Cache) Report {
	r := Report{
		Records:  result.Records,
		Skipped:  result.Skipped,
		Complete: result.Complete,
		Caches:   make([]CacheReport, 0, len(caches)),
	}

	for _, c := range caches {
		r.Caches = append(r.Caches, NewCacheReport(c))
	}

	return r
}

// NewCacheReport captures the current state of c.
func NewCacheReport(c *cache.Cache) CacheReport {
	config := c.Config()
	stats := c.Stats()

	cr := CacheReport{
		Name:          c.Name(),
		Kind:          KindLabel(config),
		Size:          config.Size,
		LineSize:      config.LineSize,
		Associativity: config.Associativity,
		Sets:          c.NumSets(),
		Policy:        c.PolicyName(),
		Hits:          stats.Hits,
		Misses:        stats.Misses,
		Evictions:     stats.Evictions,
		Reads:         stats.Reads,
		Writes:        stats.Writes,
	}

	if rate, ok := stats.HitRate(); ok {
		cr.HitRate = &rate
	}

	return cr
}

// KindLabel names the organization of a cache the way configuration files
// do.
func KindLabel(config cache.Config) string {
	switch {
	case config.Associativity == 1:
		return "direct"
	case uint64(config.Associativity) == config.NumLines():
		return "full"
	default:
		return fmt.Sprintf("%dway", config.Associativity)
	}
}

// Write renders r to w in the given format.
func Write(w io.Writer, r Report, format Format) error {
	switch format {
	case FormatText, "":
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	}

	return fmt.Errorf("unknown report format %q", string(format))
}

// WriteJSON renders r as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	return nil
}

// WriteYAML renders r as YAML.
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to write YAML report: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to write YAML report: %w", err)
	}

	return nil
}

// WriteText renders r for people.
func WriteText(w io.Writer, r Report) error {
	p := &printer{w: w}

	p.println("=== Cache Simulation Results ===")
	p.printf("Records:  %d\n", r.Records)
	if r.Skipped > 0 {
		p.printf("Skipped:  %d\n", r.Skipped)
	}
	if !r.Complete {
		p.println("Status:   incomplete")
	}
	p.println("")

	for _, c := range r.Caches {
		p.printf("Cache: %s\n", c.Name)
		p.printf("  Organization: %s, %d sets x %d ways, policy %s\n",
			c.Kind, c.Sets, c.Associativity, c.Policy)
		p.printf("  Size:         %d B (%d B lines)\n", c.Size, c.LineSize)
		p.printf("  Reads:        %d\n", c.Reads)
		p.printf("  Writes:       %d\n", c.Writes)
		p.printf("  Hits:         %d\n", c.Hits)
		p.printf("  Misses:       %d\n", c.Misses)
		p.printf("  Evictions:    %d\n", c.Evictions)
		p.printf("  Hit Rate:     %s\n", formatRate(c.HitRate))
		p.println("")
	}

	return p.err
}

func formatRate(rate *float64) string {
	if rate == nil {
		return "N/A"
	}

	return fmt.Sprintf("%.2f%%", *rate*100)
}

// printer remembers the first write error so WriteText can report it once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintln(p.w, s)
}
