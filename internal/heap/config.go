package heap

import "github.com/mohammadshaheer4/malloclab/internal/block"

// Config holds the engine's compile-time knobs (spec.md §6), exposed as a
// struct so tests can shrink Chunk to exercise heap extension without
// growing a multi-kilobyte region.
type Config struct {
	// Chunk is the minimum number of bytes requested from the region
	// provider whenever the engine must extend the heap.
	Chunk uint64
	// Alignment every payload address must satisfy.
	Alignment uint64
	// Word is the size, in bytes, of a header/footer/link word.
	Word uint64
	// MinBlock is the smallest legal block size.
	MinBlock uint64
	// NumLists is the number of segregated free lists.
	NumLists int
}

// DefaultConfig returns the knobs spec.md §6 specifies: CHUNK=4096,
// ALIGNMENT=16, WORD=8, MIN_BLOCK=32, NUM_LISTS=11.
func DefaultConfig() Config {
	return Config{
		Chunk:     4096,
		Alignment: block.Alignment,
		Word:      block.Word,
		MinBlock:  block.MinSize,
		NumLists:  11,
	}
}
