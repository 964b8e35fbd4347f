package tagging

// A VictimFinder decides which block of a set receives a new tag on a miss.
type VictimFinder interface {
	FindVictim(set *Set) Block
}

// LRUVictimFinder picks an empty block if there is one, otherwise the least
// recently used block.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed LRU victim finder.
func NewLRUVictimFinder() *LRUVictimFinder {
	return new(LRUVictimFinder)
}

// FindVictim returns the first invalid block in way order. If all the blocks
// are valid, it returns the oldest one. Among equally old blocks, the one with
// the lowest way ID wins.
func (e *LRUVictimFinder) FindVictim(set *Set) Block {
	for _, block := range set.Blocks {
		if !block.IsValid {
			return block
		}
	}

	victim := set.Blocks[0]
	for _, block := range set.Blocks[1:] {
		if block.Age > victim.Age {
			victim = block
		}
	}

	return victim
}
