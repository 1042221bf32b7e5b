package cache

import (
	"fmt"
	"math/rand"
	"strings"
)

// PolicyKind names a replacement policy.
type PolicyKind string

// Supported replacement policies.
const (
	RoundRobin PolicyKind = "rr"
	LRU        PolicyKind = "lru"
	Random     PolicyKind = "random"
	LFU        PolicyKind = "lfu"
)

// DefaultPolicy is used when a configuration does not name a policy.
const DefaultPolicy = RoundRobin

// ParsePolicyKind converts a configuration key into a PolicyKind. An empty
// key selects DefaultPolicy.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch PolicyKind(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultPolicy, nil
	case RoundRobin:
		return RoundRobin, nil
	case LRU:
		return LRU, nil
	case Random:
		return Random, nil
	case LFU:
		return LFU, nil
	}

	return "", fmt.Errorf("%w: unknown replacement policy %q", ErrConfiguration, s)
}

// A ReplacementPolicy decides which line of a full set is evicted.
type ReplacementPolicy interface {
	// Name returns the configuration key of the policy.
	Name() string

	// SelectVictim returns the way to evict from a set whose lines are all
	// valid.
	SelectVictim(set *Set) int

	// OnAccess is called after every access that touched way, with hit false
	// when the way has just been filled.
	OnAccess(set *Set, way int, hit bool)
}

// NewPolicy creates the per-set state of a policy for a cache with numSets
// sets of numWays ways. rng is only used by the random policy.
func NewPolicy(
	kind PolicyKind,
	numSets, numWays int,
	rng *rand.Rand,
) (ReplacementPolicy, error) {
	switch kind {
	case RoundRobin:
		return NewRoundRobinPolicy(numSets, numWays), nil
	case LRU:
		return NewLRUPolicy(numSets, numWays), nil
	case Random:
		if rng == nil {
			return nil, fmt.Errorf(
				"%w: random policy requires a random source", ErrConfiguration)
		}

		return NewRandomPolicy(numWays, rng), nil
	case LFU:
		return NewLFUPolicy(numSets, numWays), nil
	}

	return nil, fmt.Errorf("%w: unknown replacement policy %q", ErrConfiguration, kind)
}
