// Package cache models a set-associative cache that only tracks which blocks
// are present. Block contents are not stored.
package cache

import (
	"github.com/sarchlab/csim/mem/cache/internal/tagging"
	"github.com/sarchlab/csim/sim/hooking"
)

// HookPosAccess marks the completion of one cache access. The hook item is an
// AccessResult.
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

// AccessResult describes what happened during one access.
type AccessResult struct {
	Address    uint64
	Tag        uint64
	SetID      int
	WayID      int
	Hit        bool
	Evicted    bool
	EvictedTag uint64
}

func (r AccessResult) String() string {
	switch {
	case r.Hit:
		return "hit"
	case r.Evicted:
		return "miss eviction"
	default:
		return "miss"
	}
}

// Comp is a set-associative cache with a fixed geometry.
type Comp struct {
	hooking.HookableBase

	name         string
	decoder      AddressDecoder
	tags         tagging.TagArray
	victimFinder tagging.VictimFinder
}

// Name returns the name of the cache.
func (c *Comp) Name() string {
	return c.name
}

// Decoder returns the address decoder of the cache.
func (c *Comp) Decoder() AddressDecoder {
	return c.decoder
}

// NumSets returns the number of sets.
func (c *Comp) NumSets() int {
	return c.tags.NumSets()
}

// NumWays returns the number of lines in each set.
func (c *Comp) NumWays() int {
	return c.tags.NumWays()
}

// BlockSize returns the number of bytes in a block.
func (c *Comp) BlockSize() uint64 {
	return c.decoder.BlockSize()
}

// Reset invalidates all the lines.
func (c *Comp) Reset() {
	c.tags.Reset()
}

// Access looks up the block that holds addr. On a miss, the block is brought
// into the cache, replacing the victim selected by the victim finder.
func (c *Comp) Access(addr uint64) AccessResult {
	tag, setID, _ := c.decoder.Decode(addr)

	result := AccessResult{
		Address: addr,
		Tag:     tag,
		SetID:   setID,
	}

	block, hit := c.tags.Lookup(setID, tag)
	if hit {
		result.Hit = true
	} else {
		block = c.victimFinder.FindVictim(c.tags.GetSet(setID))

		if block.IsValid {
			result.Evicted = true
			result.EvictedTag = block.Tag
		}

		block.IsValid = true
		block.Tag = tag
		c.tags.Update(block)
	}

	c.tags.Visit(block)
	result.WayID = block.WayID

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item:   result,
	})

	return result
}
