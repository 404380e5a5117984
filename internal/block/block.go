// Package block implements the on-heap boundary-tag block encoding: packing
// and unpacking header/footer words and navigating between contiguous
// neighbors. It has no notion of free lists or allocation policy; it only
// knows how to read and write the bits that describe a block.
package block

// Memory is the minimal word-addressable surface the block encoding needs.
// Both region providers satisfy it, and the free lists store their links
// through it, so a block address is just a uint64 offset into whatever
// Memory backs it.
type Memory interface {
	ReadWord(addr uint64) uint64
	WriteWord(addr uint64, w uint64)
}

const (
	// Word is the size, in bytes, of a header or footer word.
	Word = 8
	// Alignment every payload address must satisfy.
	Alignment = 16
	// MinSize is the smallest legal block size: one header word, two link
	// words (reused as payload once allocated), and one footer word.
	MinSize = 32

	allocBit      = 0x1
	prevAllocBit  = 0x2
	sizeMask      = ^uint64(0xF)
)

// Pack encodes size and the two flag bits into a header/footer word. size
// must already be a multiple of 16.
func Pack(size uint64, alloc, prevAlloc bool) uint64 {
	word := size
	if alloc {
		word |= allocBit
	}
	if prevAlloc {
		word |= prevAllocBit
	}
	return word
}

// ExtractSize masks off the flag bits, recovering the encoded size.
func ExtractSize(word uint64) uint64 { return word & sizeMask }

// ExtractAlloc reports the allocated bit of a header/footer word.
func ExtractAlloc(word uint64) bool { return word&allocBit != 0 }

// ExtractPrevAlloc reports the prev-allocated bit of a header/footer word.
func ExtractPrevAlloc(word uint64) bool { return word&prevAllocBit != 0 }

// WriteHeader overwrites the header word at addr.
func WriteHeader(mem Memory, addr, size uint64, alloc, prevAlloc bool) {
	mem.WriteWord(addr, Pack(size, alloc, prevAlloc))
}

// FooterAddr returns the address of the footer word of a block of the given
// size starting at addr. Only meaningful for free blocks; allocated blocks
// carry no footer.
func FooterAddr(addr, size uint64) uint64 { return addr + size - Word }

// WriteFooter overwrites the footer word of a block of the given size.
func WriteFooter(mem Memory, addr, size uint64, alloc, prevAlloc bool) {
	mem.WriteWord(FooterAddr(addr, size), Pack(size, alloc, prevAlloc))
}

// Header returns the raw header word at addr.
func Header(mem Memory, addr uint64) uint64 { return mem.ReadWord(addr) }

// Size returns the size encoded in the block header at addr.
func Size(mem Memory, addr uint64) uint64 { return ExtractSize(mem.ReadWord(addr)) }

// Alloc reports whether the block at addr is allocated.
func Alloc(mem Memory, addr uint64) bool { return ExtractAlloc(mem.ReadWord(addr)) }

// PrevAlloc reports whether the block immediately preceding addr is
// allocated, per the header's prev-allocated bit.
func PrevAlloc(mem Memory, addr uint64) bool { return ExtractPrevAlloc(mem.ReadWord(addr)) }

// SetPrevAllocBit sets or clears only the prev-allocated bit of the header at
// addr, leaving size and the allocated bit untouched. Used to propagate prev-alloc into a
// successor without needing to know the successor's own size/alloc state
// first (mirrors mm_final_v3.c's change_alloc_next_block, which edits the
// header word directly rather than re-deriving it via write_header).
func SetPrevAllocBit(mem Memory, addr uint64, prevAlloc bool) {
	word := mem.ReadWord(addr)
	if prevAlloc {
		word |= prevAllocBit
	} else {
		word &^= prevAllocBit
	}
	mem.WriteWord(addr, word)
}

// FindNext returns the address of the block immediately following addr.
func FindNext(mem Memory, addr uint64) uint64 { return addr + Size(mem, addr) }

// FindPrevFooterAddr returns the address of the footer word belonging to the
// block immediately preceding addr.
func FindPrevFooterAddr(addr uint64) uint64 { return addr - Word }

// FindPrev returns the address of the block immediately preceding addr. Only
// valid when PrevAlloc(addr) is false: an allocated predecessor carries no
// footer to read its size from.
func FindPrev(mem Memory, addr uint64) uint64 {
	size := ExtractSize(mem.ReadWord(FindPrevFooterAddr(addr)))
	return addr - size
}

// PayloadAddr returns the address of the payload given a block's header
// address.
func PayloadAddr(addr uint64) uint64 { return addr + Word }

// HeaderAddr returns the address of a block's header given its payload
// address.
func HeaderAddr(payloadAddr uint64) uint64 { return payloadAddr - Word }

// AlignUp rounds x up to the nearest multiple of m. m must be a power of 2.
func AlignUp(x, m uint64) uint64 { return (x + m - 1) &^ (m - 1) }

// Aligned reports whether addr is a multiple of Alignment.
func Aligned(addr uint64) bool { return addr%Alignment == 0 }

// AdjustRequestSize turns a user-facing malloc request into the block size
// the engine must carve out: max(MinSize, align16(n-8)+16). Allocated blocks
// keep no footer, so the -8 compensates for the one word of header overhead
// before the alignment rounding adds it back. Requests of 24 bytes or less
// share the 32-byte class (n-8 would underflow uint64 below that, so it is
// special-cased rather than computed).
func AdjustRequestSize(n uint64) uint64 {
	if n <= MinSize-Word {
		return MinSize
	}
	return AlignUp(n-Word, Alignment) + 2*Word
}
