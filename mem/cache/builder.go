package cache

import (
	"fmt"

	"github.com/sarchlab/csim/mem/cache/internal/tagging"
)

// Builder can build caches.
type Builder struct {
	log2NumSets      int
	log2BlockSize    int
	wayAssociativity int
	replaceStrategy  string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		log2NumSets:      4,
		log2BlockSize:    4,
		wayAssociativity: 1,
		replaceStrategy:  "lru",
	}
}

// WithLog2NumSets sets the number of set index bits.
func (b Builder) WithLog2NumSets(log2NumSets int) Builder {
	b.log2NumSets = log2NumSets
	return b
}

// WithLog2BlockSize sets the number of block offset bits.
func (b Builder) WithLog2BlockSize(log2BlockSize int) Builder {
	b.log2BlockSize = log2BlockSize
	return b
}

// WithWayAssociativity sets the number of lines in each set.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithReplaceStrategy sets the replacement policy. Only "lru" is supported.
func (b Builder) WithReplaceStrategy(replaceStrategy string) Builder {
	b.replaceStrategy = replaceStrategy
	return b
}

// Build builds a cache. All the lines of the cache are invalid.
func (b Builder) Build(name string) *Comp {
	b.mustHaveValidGeometry()

	decoder := AddressDecoder{
		Log2NumSets:   b.log2NumSets,
		Log2BlockSize: b.log2BlockSize,
	}

	return &Comp{
		name:         name,
		decoder:      decoder,
		tags:         tagging.NewTagArray(int(decoder.NumSets()), b.wayAssociativity),
		victimFinder: b.createVictimFinder(),
	}
}

func (b Builder) createVictimFinder() tagging.VictimFinder {
	switch b.replaceStrategy {
	case "lru":
		return tagging.NewLRUVictimFinder()
	default:
		panic("unknown replace strategy: " + b.replaceStrategy)
	}
}

func (b Builder) mustHaveValidGeometry() {
	if b.wayAssociativity < 1 {
		panic(fmt.Sprintf(
			"way associativity must be at least 1, got %d", b.wayAssociativity))
	}

	if b.log2NumSets < 0 || b.log2BlockSize < 0 {
		panic("set index and block offset bits cannot be negative")
	}

	if b.log2NumSets+b.log2BlockSize > AddressWidth {
		panic(fmt.Sprintf(
			"set index and block offset bits exceed the %d-bit address",
			AddressWidth))
	}
}
