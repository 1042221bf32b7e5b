// Package config loads the description of the caches to simulate.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/cache"
)

// Kind is the organization of a cache as written in configuration files.
type Kind string

// Supported cache kinds.
const (
	KindDirect Kind = "direct"
	KindFull   Kind = "full"
	Kind2Way   Kind = "2way"
	Kind4Way   Kind = "4way"
	Kind8Way   Kind = "8way"
)

// Associativity returns the number of ways a cache of this kind has when it
// holds numLines lines.
func (k Kind) Associativity(numLines uint64) (int, error) {
	switch k {
	case KindDirect:
		return 1, nil
	case KindFull:
		return int(numLines), nil
	case Kind2Way:
		return 2, nil
	case Kind4Way:
		return 4, nil
	case Kind8Way:
		return 8, nil
	}

	return 0, fmt.Errorf("%w: unknown kind %q", cache.ErrConfiguration, string(k))
}

// CacheSpec is one entry of the "caches" list.
type CacheSpec struct {
	// Name identifies the cache in reports.
	Name string `json:"name" yaml:"name"`

	// Kind is one of direct, full, 2way, 4way, 8way.
	Kind Kind `json:"kind" yaml:"kind"`

	// Size is the capacity in bytes.
	Size uint64 `json:"size" yaml:"size"`

	// LineSize is the cache line size in bytes.
	LineSize uint64 `json:"line_size" yaml:"line_size"`

	// ReplacementPolicy is one of rr, lru, random, lfu. Default: rr.
	// Direct-mapped caches validate but ignore it.
	ReplacementPolicy string `json:"replacement_policy,omitempty" yaml:"replacement_policy,omitempty"`
}

// File is the top-level configuration document.
type File struct {
	// Seed derives the random seeds of caches using the random policy.
	// Optional; the command line may override it.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Caches are simulated independently and reported in this order.
	Caches []CacheSpec `json:"caches" yaml:"caches"`
}

// Load reads a configuration file. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache config file: %w", err)
	}

	f := &File{}
	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(f)
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(f)
	}

	// An empty file leaves an empty cache list for Validate to report.
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse cache config: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// Save writes the configuration to path in the format implied by its
// extension.
func (f *File) Save(path string) error {
	data, err := f.Marshal(isYAML(path))
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

// Encode writes the configuration to w as YAML or indented JSON.
func (f *File) Encode(w io.Writer, asYAML bool) error {
	data, err := f.Marshal(asYAML)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// Marshal serializes the configuration as YAML or indented JSON.
func (f *File) Marshal(asYAML bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	if asYAML {
		data, err = yaml.Marshal(f)
	} else {
		data, err = json.MarshalIndent(f, "", "  ")
		data = append(data, '\n')
	}

	if err != nil {
		return nil, fmt.Errorf("failed to serialize cache config: %w", err)
	}

	return data, nil
}

// Validate checks every cache entry, including its geometry.
func (f *File) Validate() error {
	if len(f.Caches) == 0 {
		return fmt.Errorf("%w: no caches configured", cache.ErrConfiguration)
	}

	seen := make(map[string]bool, len(f.Caches))
	for i, spec := range f.Caches {
		if _, err := spec.CacheConfig(); err != nil {
			return fmt.Errorf("caches[%d]: %w", i, err)
		}

		if seen[spec.Name] {
			return fmt.Errorf("caches[%d]: %w: duplicate name %q",
				i, cache.ErrConfiguration, spec.Name)
		}

		seen[spec.Name] = true
	}

	return nil
}

// CacheConfigs converts every entry. Seeds are left at zero.
func (f *File) CacheConfigs() ([]cache.Config, error) {
	configs := make([]cache.Config, 0, len(f.Caches))
	for i, spec := range f.Caches {
		c, err := spec.CacheConfig()
		if err != nil {
			return nil, fmt.Errorf("caches[%d]: %w", i, err)
		}

		configs = append(configs, c)
	}

	return configs, nil
}

// CacheConfig converts the entry into the geometry used by the cache model.
func (s CacheSpec) CacheConfig() (cache.Config, error) {
	if s.Name == "" {
		return cache.Config{}, fmt.Errorf("%w: name is required", cache.ErrConfiguration)
	}

	if s.Kind == "" {
		return cache.Config{}, fmt.Errorf("%w: %s: kind is required",
			cache.ErrConfiguration, s.Name)
	}

	if s.Size == 0 {
		return cache.Config{}, fmt.Errorf("%w: %s: size is required",
			cache.ErrConfiguration, s.Name)
	}

	if s.LineSize == 0 {
		return cache.Config{}, fmt.Errorf("%w: %s: line_size is required",
			cache.ErrConfiguration, s.Name)
	}

	policy, err := cache.ParsePolicyKind(s.ReplacementPolicy)
	if err != nil {
		return cache.Config{}, fmt.Errorf("%s: %w", s.Name, err)
	}

	ways, err := s.Kind.Associativity(s.Size / s.LineSize)
	if err != nil {
		return cache.Config{}, fmt.Errorf("%s: %w", s.Name, err)
	}

	c := cache.Config{
		Name:          s.Name,
		Size:          s.Size,
		LineSize:      s.LineSize,
		Associativity: ways,
		Policy:        policy,
	}

	if err := c.Validate(); err != nil {
		return cache.Config{}, fmt.Errorf("%s: %w", s.Name, err)
	}

	return c, nil
}

// Example returns a small three-cache configuration, one of each common
// organization.
func Example() *File {
	return &File{
		Caches: []CacheSpec{
			{
				Name:     "L1-direct",
				Kind:     KindDirect,
				Size:     32 * 1024, // 32KB
				LineSize: 64,        // 64B cache line
			},
			{
				Name:              "L1-8way",
				Kind:              Kind8Way,
				Size:              32 * 1024,
				LineSize:          64,
				ReplacementPolicy: string(cache.LRU),
			},
			{
				Name:     "L2-full",
				Kind:     KindFull,
				Size:     256 * 1024, // 256KB
				LineSize: 128,        // 128B cache line
			},
		},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}

	return false
}
