package cache

// AddressWidth is the number of bits in a memory address.
const AddressWidth = 64

// AddressDecoder splits an address into tag, set index, and block offset.
//
//	| tag | set index (Log2NumSets bits) | offset (Log2BlockSize bits) |
type AddressDecoder struct {
	Log2NumSets   int
	Log2BlockSize int
}

// NumSets returns the number of sets the set index can select.
func (d AddressDecoder) NumSets() uint64 {
	return 1 << d.Log2NumSets
}

// BlockSize returns the number of bytes in a block.
func (d AddressDecoder) BlockSize() uint64 {
	return 1 << d.Log2BlockSize
}

// Decode returns the tag, the set index, and the block offset of an address.
// When the set index and offset bits consume the whole address, the tag is 0.
func (d AddressDecoder) Decode(addr uint64) (tag uint64, setID int, offset uint64) {
	offset = addr & (d.BlockSize() - 1)
	setID = int((addr >> d.Log2BlockSize) & (d.NumSets() - 1))
	tag = addr >> (d.Log2NumSets + d.Log2BlockSize)

	return tag, setID, offset
}
