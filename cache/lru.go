package cache

// LRUPolicy evicts the least recently used way of a set.
//
// Each set keeps a queue of way indices ordered from least to most recently
// used.
type LRUPolicy struct {
	queues [][]int
}

// NewLRUPolicy returns an LRU policy whose queues start in way order.
func NewLRUPolicy(numSets, numWays int) *LRUPolicy {
	p := &LRUPolicy{queues: make([][]int, numSets)}

	for i := range p.queues {
		q := make([]int, numWays)
		for w := range q {
			q[w] = w
		}

		p.queues[i] = q
	}

	return p
}

// Name returns "lru".
func (p *LRUPolicy) Name() string {
	return string(LRU)
}

// SelectVictim returns the head of the set's queue.
func (p *LRUPolicy) SelectVictim(set *Set) int {
	return p.queues[set.ID][0]
}

// OnAccess moves way to the most recently used end of the queue.
func (p *LRUPolicy) OnAccess(set *Set, way int, hit bool) {
	q := p.queues[set.ID]

	pos := -1
	for i, w := range q {
		if w == way {
			pos = i
			break
		}
	}

	if pos < 0 {
		return
	}

	copy(q[pos:], q[pos+1:])
	q[len(q)-1] = way
}

// Order returns a copy of the recency queue of a set, least recently used
// first.
func (p *LRUPolicy) Order(setID int) []int {
	return append([]int(nil), p.queues[setID]...)
}
