// Package tagging keeps the tag bookkeeping of a set-associative cache.
package tagging

// TagArray holds the tags of every block in a cache, organized as sets of ways.
type TagArray interface {
	// Lookup returns the valid block in the set that holds the tag.
	Lookup(setID int, tag uint64) (Block, bool)

	// Update writes the block back to its position in the array.
	Update(block Block)

	// Visit marks the block as the most recently used block of its set.
	Visit(block Block)

	// GetSet returns the set with the given ID.
	GetSet(setID int) *Set

	// NumSets returns the number of sets in the array.
	NumSets() int

	// NumWays returns the number of blocks in each set.
	NumWays() int

	// Reset invalidates every block.
	Reset()
}

// NewTagArray creates a tag array with all the blocks invalid.
func NewTagArray(numSets, numWays int) TagArray {
	t := &tagArrayImpl{
		numSets: numSets,
		numWays: numWays,
	}

	t.Reset()

	return t
}

// A Block is the bookkeeping information of one cache line.
type Block struct {
	SetID   int
	WayID   int
	Tag     uint64
	IsValid bool

	// Age counts the accesses to other blocks of the same set since this
	// block was last used. 0 means most recently used.
	Age uint64
}

// A Set is the group of blocks that a certain address can be stored at.
type Set struct {
	Blocks []Block
}

type tagArrayImpl struct {
	numSets int
	numWays int
	sets    []Set
}

func (t *tagArrayImpl) NumSets() int {
	return t.numSets
}

func (t *tagArrayImpl) NumWays() int {
	return t.numWays
}

func (t *tagArrayImpl) GetSet(setID int) *Set {
	return &t.sets[setID]
}

func (t *tagArrayImpl) Lookup(setID int, tag uint64) (Block, bool) {
	set := t.GetSet(setID)

	for _, block := range set.Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

func (t *tagArrayImpl) Update(block Block) {
	t.sets[block.SetID].Blocks[block.WayID] = block
}

// Visit resets the age of the block and ages every other valid block in the
// same set by one.
func (t *tagArrayImpl) Visit(block Block) {
	set := t.GetSet(block.SetID)

	for i := range set.Blocks {
		b := &set.Blocks[i]

		if i == block.WayID {
			b.Age = 0
			continue
		}

		if b.IsValid {
			b.Age++
		}
	}
}

func (t *tagArrayImpl) Reset() {
	t.sets = make([]Set, t.numSets)

	for i := range t.sets {
		t.sets[i].Blocks = make([]Block, t.numWays)

		for j := range t.sets[i].Blocks {
			t.sets[i].Blocks[j] = Block{
				SetID: i,
				WayID: j,
			}
		}
	}
}
