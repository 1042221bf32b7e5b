package cache

// RoundRobinPolicy evicts the ways of a set in cyclic order, ignoring hits.
type RoundRobinPolicy struct {
	numWays int
	next    []int
}

// NewRoundRobinPolicy returns a round-robin policy with every pointer at way 0.
func NewRoundRobinPolicy(numSets, numWays int) *RoundRobinPolicy {
	return &RoundRobinPolicy{
		numWays: numWays,
		next:    make([]int, numSets),
	}
}

// Name returns "rr".
func (p *RoundRobinPolicy) Name() string {
	return string(RoundRobin)
}

// SelectVictim returns the pointed way and advances the pointer.
func (p *RoundRobinPolicy) SelectVictim(set *Set) int {
	way := p.next[set.ID]
	p.next[set.ID] = (way + 1) % p.numWays

	return way
}

// OnAccess does nothing.
func (p *RoundRobinPolicy) OnAccess(set *Set, way int, hit bool) {}
