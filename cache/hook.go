package cache

import "github.com/sarchlab/akita/v4/sim"

// HookPosAccess marks the completion of a cache access. The hook context Item
// is the *Cache and Detail is an AccessDetail.
var HookPosAccess = &sim.HookPos{Name: "CacheAccess"}

// AccessDetail describes one completed access.
type AccessDetail struct {
	Address   uint64
	Operation Operation
	Size      int
	Decoded   Address
	Way       int
	Outcome   Outcome

	// Evicted is set when a valid line was replaced. EvictedAddress is the
	// block address of that line.
	Evicted        bool
	EvictedTag     uint64
	EvictedAddress uint64
}

func (c *Cache) invokeAccessHook(
	address uint64,
	op Operation,
	size int,
	addr Address,
	way int,
	outcome Outcome,
	victim *Line,
) {
	if c.NumHooks() == 0 {
		return
	}

	detail := AccessDetail{
		Address:   address,
		Operation: op,
		Size:      size,
		Decoded:   addr,
		Way:       way,
		Outcome:   outcome,
	}

	if victim != nil {
		detail.Evicted = true
		detail.EvictedTag = victim.Tag
		detail.EvictedAddress = c.decoder.Compose(victim.Tag, addr.SetIndex)
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item:   c,
		Detail: detail,
	})
}
