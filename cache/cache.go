// Package cache provides a trace-driven model of a set-associative cache.
//
// The model keeps only tags, valid bits and replacement bookkeeping. It
// decides whether each access hits or misses and which line is replaced on a
// miss; no data is ever stored.
package cache

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sarchlab/akita/v4/sim"
)

// ErrConfiguration is wrapped by every error caused by an impossible cache
// geometry or an unknown policy.
var ErrConfiguration = errors.New("invalid cache configuration")

// Config holds cache configuration parameters.
type Config struct {
	// Name identifies the cache in reports.
	Name string
	// Size in bytes
	Size uint64
	// LineSize in bytes (cache line size)
	LineSize uint64
	// Associativity is the number of ways per set. 1 is direct-mapped and
	// Size/LineSize is fully associative.
	Associativity int
	// Policy selects the victim on a miss to a full set.
	Policy PolicyKind
	// Seed initializes the random source used by the random policy.
	Seed int64
}

// NumLines returns the number of lines of the cache.
func (c Config) NumLines() uint64 {
	if c.LineSize == 0 {
		return 0
	}

	return c.Size / c.LineSize
}

// NumSets returns the number of sets of the cache.
func (c Config) NumSets() uint64 {
	if c.Associativity <= 0 {
		return 0
	}

	return c.NumLines() / uint64(c.Associativity)
}

// Validate checks that the geometry describes a realizable cache.
func (c Config) Validate() error {
	if !isPowerOfTwo(c.Size) {
		return fmt.Errorf("%w: size %d is not a positive power of two",
			ErrConfiguration, c.Size)
	}

	if !isPowerOfTwo(c.LineSize) {
		return fmt.Errorf("%w: line size %d is not a positive power of two",
			ErrConfiguration, c.LineSize)
	}

	if c.Size%c.LineSize != 0 {
		return fmt.Errorf("%w: size %d is not a multiple of line size %d",
			ErrConfiguration, c.Size, c.LineSize)
	}

	if c.Associativity <= 0 {
		return fmt.Errorf("%w: associativity must be > 0", ErrConfiguration)
	}

	if c.NumLines()%uint64(c.Associativity) != 0 {
		return fmt.Errorf("%w: associativity %d does not divide %d lines",
			ErrConfiguration, c.Associativity, c.NumLines())
	}

	if _, err := ParsePolicyKind(string(c.Policy)); err != nil {
		return err
	}

	return nil
}

// Operation is the kind of memory access.
type Operation int

// Memory operations.
const (
	Read Operation = iota
	Write
)

func (o Operation) String() string {
	switch o {
	case Read:
		return "R"
	case Write:
		return "W"
	}

	return fmt.Sprintf("Operation(%d)", int(o))
}

// Outcome is the result of an access.
type Outcome int

// Access outcomes.
const (
	Miss Outcome = iota
	Hit
)

func (o Outcome) String() string {
	if o == Hit {
		return "HIT"
	}

	return "MISS"
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads     uint64
	Writes    uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Accesses returns the number of accesses processed.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns hits/(hits+misses). ok is false when there has been no
// access.
func (s Statistics) HitRate() (rate float64, ok bool) {
	total := s.Accesses()
	if total == 0 {
		return 0, false
	}

	return float64(s.Hits) / float64(total), true
}

// Cache models one configured cache.
type Cache struct {
	sim.HookableBase

	config  Config
	decoder Decoder
	sets    []Set
	policy  ReplacementPolicy
	stats   Statistics
}

// New creates a cache with all lines invalid.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Validate accepts any spelling ParsePolicyKind does.
	config.Policy, _ = ParsePolicyKind(string(config.Policy))

	numSets := config.NumSets()

	decoder, err := NewDecoder(config.LineSize, numSets)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(config.Seed))

	policy, err := NewPolicy(config.Policy, int(numSets), config.Associativity, rng)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		config:  config,
		decoder: decoder,
		sets:    make([]Set, numSets),
		policy:  policy,
	}

	for i := range c.sets {
		c.sets[i] = newSet(i, config.Associativity)
	}

	return c, nil
}

// Name returns the configured name.
func (c *Cache) Name() string {
	return c.config.Name
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Decoder returns the address decoder of the cache.
func (c *Cache) Decoder() Decoder {
	return c.decoder
}

// PolicyName returns the replacement policy in effect. Direct-mapped caches
// report "direct" since they never consult a policy.
func (c *Cache) PolicyName() string {
	if c.config.Associativity == 1 {
		return "direct"
	}

	return c.policy.Name()
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return len(c.sets)
}

// Set returns the set with the given index.
func (c *Cache) Set(index int) *Set {
	return &c.sets[index]
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Counters returns the hit and miss counts.
func (c *Cache) Counters() (hits, misses uint64) {
	return c.stats.Hits, c.stats.Misses
}

// Access looks up address and allocates its line on a miss. op and size do
// not influence the outcome; an access crossing a line boundary is resolved
// with the line of its first byte.
func (c *Cache) Access(address uint64, op Operation, size int) Outcome {
	c.countOperation(op)

	addr := c.decoder.Decode(address)
	set := &c.sets[addr.SetIndex]

	if way, found := set.Lookup(addr.Tag); found {
		c.stats.Hits++
		c.touch(set, way, true)
		c.invokeAccessHook(address, op, size, addr, way, Hit, nil)

		return Hit
	}

	c.stats.Misses++

	way, victim := c.allocate(set)
	set.Fill(way, addr.Tag)
	c.touch(set, way, false)
	c.invokeAccessHook(address, op, size, addr, way, Miss, victim)

	return Miss
}

// AccessSpan accesses every line touched by [address, address+size) and
// reports a hit only if all of them hit. Each line counts as one access.
func (c *Cache) AccessSpan(address uint64, op Operation, size int) Outcome {
	if size <= 1 {
		return c.Access(address, op, size)
	}

	last := address + uint64(size) - 1
	if last < address {
		last = ^uint64(0)
	}

	outcome := Hit
	lineSize := c.decoder.LineSize()

	for line := c.decoder.BlockAddress(address); ; line += lineSize {
		start := line
		if start < address {
			start = address
		}

		if c.Access(start, op, size) == Miss {
			outcome = Miss
		}

		if last-line < lineSize {
			break
		}
	}

	return outcome
}

// allocate picks the way that receives a new line. victim is the line that
// was replaced, if any.
func (c *Cache) allocate(set *Set) (way int, victim *Line) {
	if w, ok := set.FirstInvalid(); ok {
		return w, nil
	}

	if set.Ways() == 1 {
		way = 0
	} else {
		way = c.policy.SelectVictim(set)
	}

	c.stats.Evictions++
	evicted := set.Lines[way]

	return way, &evicted
}

// touch reports an access to the policy. Direct-mapped caches have nothing to
// choose between and skip it.
func (c *Cache) touch(set *Set, way int, hit bool) {
	if set.Ways() == 1 {
		return
	}

	c.policy.OnAccess(set, way, hit)
}

func (c *Cache) countOperation(op Operation) {
	if op == Write {
		c.stats.Writes++
		return
	}

	c.stats.Reads++
}
