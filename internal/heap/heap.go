// Package heap implements the allocation engine: heap layout and
// initialization, the fit search, splitting, coalescing, and the public
// malloc/free/realloc/calloc operations built on top of internal/block,
// internal/freelist, and a region.Provider.
package heap

import (
	"fmt"
	"log"

	"github.com/mohammadshaheer4/malloclab/internal/block"
	allocerrors "github.com/mohammadshaheer4/malloclab/internal/errors"
	"github.com/mohammadshaheer4/malloclab/internal/freelist"
)

// Provider is the subset of region.Provider the engine depends on. Declared
// locally (rather than imported from internal/region) so internal/heap has
// no compile-time dependency on any one region implementation.
type Provider interface {
	Sbrk(n uint64) (uint64, error)
	HeapLo() uint64
	HeapHi() uint64
	ReadWord(addr uint64) uint64
	WriteWord(addr uint64, w uint64)
}

// Engine is the heap-management core: it owns the segregated list roots and
// cursors, the last-block pointer, and the block sequence living in a
// Provider's region. Its zero value is not ready for use; construct one
// with New.
//
// Engine is single-threaded and synchronous per spec.md §5: no operation
// suspends, and callers must not invoke two operations concurrently.
type Engine struct {
	mem Provider
	cfg Config

	initialized bool
	lists       *freelist.Lists

	rootsAddr          uint64
	cursorsAddr        uint64
	prologueFooterAddr uint64
	heapListp          uint64 // address of the first real block once grown
	lastBlock          uint64 // block whose successor is the epilogue

	// Debug gates verbose malloc/free/coalesce tracing, off by default.
	Debug bool
}

// New constructs an Engine over mem, using cfg for its compile-time knobs.
// The heap is not usable until Init succeeds (or until the first Malloc
// call, which initializes lazily).
func New(mem Provider, cfg Config) *Engine {
	return &Engine{mem: mem, cfg: cfg}
}

func (e *Engine) debugf(format string, args ...interface{}) {
	if e.Debug {
		log.Printf("heap: "+format, args...)
	}
}

// Init performs the one-time heap setup described in spec.md §4.2: it
// reserves the metadata words (list roots, cursors, prologue footer,
// epilogue header), then extends the heap by one chunk and inserts the
// result into the free lists. Calling Init again once it has already
// succeeded is a no-op, matching the "re-entrant callers must observe
// idempotence" requirement on the uninitialized branch of malloc.
func (e *Engine) Init() error {
	if e.initialized {
		return nil
	}

	metadataWords := uint64(2*e.cfg.NumLists + 2)
	base, err := e.mem.Sbrk(metadataWords * e.cfg.Word)
	if err != nil {
		return fmt.Errorf("heap: init sbrk(%d): %w", metadataWords*e.cfg.Word, err)
	}

	e.rootsAddr = base
	e.cursorsAddr = base + uint64(e.cfg.NumLists)*e.cfg.Word
	e.prologueFooterAddr = e.cursorsAddr + uint64(e.cfg.NumLists)*e.cfg.Word
	e.heapListp = e.prologueFooterAddr + e.cfg.Word

	e.lists = freelist.New(e.mem, e.rootsAddr, e.cursorsAddr)
	e.lists.Reset()

	block.WriteHeader(e.mem, e.prologueFooterAddr, 0, true, true)
	block.WriteHeader(e.mem, e.heapListp, 0, true, true)
	e.lastBlock = e.prologueFooterAddr
	e.initialized = true

	first, err := e.extendHeap(e.cfg.Chunk)
	if err != nil {
		e.initialized = false
		return err
	}
	e.lists.Insert(first, block.Size(e.mem, first))
	e.debugf("init complete, first free block at 0x%x size %d", first, block.Size(e.mem, first))
	return nil
}

func (e *Engine) ensureInit() error {
	if e.initialized {
		return nil
	}
	return e.Init()
}

// setSuccessorPrevAlloc flips the prev-allocated bit of the block
// immediately following addr, without disturbing that successor's own size
// or alloc bit. It is called by place when it consumes a whole block and by
// Free after coalescing; malloc and coalesce do not call it.
func (e *Engine) setSuccessorPrevAlloc(addr uint64, allocated bool) {
	next := block.FindNext(e.mem, addr)
	block.SetPrevAllocBit(e.mem, next, allocated)
}

// extendHeap grows the region by size bytes (rounded up to Alignment),
// installs a new free block where the old epilogue stood, writes a fresh
// epilogue past it, and coalesces with whatever free block used to precede
// the old epilogue.
func (e *Engine) extendHeap(size uint64) (uint64, error) {
	size = block.AlignUp(size, e.cfg.Alignment)

	sbrkReturn, err := e.mem.Sbrk(size)
	if err != nil {
		return 0, fmt.Errorf("heap: extend sbrk(%d): %w", size, err)
	}
	addr := sbrkReturn - e.cfg.Word // reclaim the old epilogue header's word

	prevAlloc := block.PrevAlloc(e.mem, addr) // carried forward from the old epilogue
	block.WriteHeader(e.mem, addr, size, false, prevAlloc)
	block.WriteFooter(e.mem, addr, size, false, prevAlloc)

	next := addr + size
	block.WriteHeader(e.mem, next, 0, true, false)

	e.lastBlock = addr
	e.debugf("extend_heap(%d) -> block 0x%x", size, addr)
	return e.coalesce(addr), nil
}

// coalesce merges a just-freed block (header/footer already written, not
// yet in any free list) with any free neighbors, per spec.md §4.4's four
// cases. It returns the address of the resulting block.
func (e *Engine) coalesce(addr uint64) uint64 {
	next := block.FindNext(e.mem, addr)
	prevAllocated := block.PrevAlloc(e.mem, addr)
	nextAllocated := block.Alloc(e.mem, next)
	size := block.Size(e.mem, addr)

	switch {
	case prevAllocated && nextAllocated: // case 1
		return addr

	case prevAllocated && !nextAllocated: // case 2: absorb next
		size += block.Size(e.mem, next)
		if next == e.lastBlock {
			e.lastBlock = addr
		}
		e.lists.Remove(next, block.Size(e.mem, next))
		block.WriteHeader(e.mem, addr, size, false, true)
		block.WriteFooter(e.mem, addr, size, false, true)
		return addr

	case !prevAllocated && nextAllocated: // case 3: absorb into prev
		prev := block.FindPrev(e.mem, addr)
		size += block.Size(e.mem, prev)
		if addr == e.lastBlock {
			e.lastBlock = prev
		}
		e.lists.Remove(prev, block.Size(e.mem, prev))
		prevPrevAlloc := block.PrevAlloc(e.mem, prev)
		block.WriteHeader(e.mem, prev, size, false, prevPrevAlloc)
		block.WriteFooter(e.mem, prev, size, false, prevPrevAlloc)
		return prev

	default: // case 4: absorb both
		prev := block.FindPrev(e.mem, addr)
		size += block.Size(e.mem, prev) + block.Size(e.mem, next)
		if next == e.lastBlock {
			e.lastBlock = prev
		}
		e.lists.Remove(next, block.Size(e.mem, next))
		e.lists.Remove(prev, block.Size(e.mem, prev))
		prevPrevAlloc := block.PrevAlloc(e.mem, prev)
		block.WriteHeader(e.mem, prev, size, false, prevPrevAlloc)
		block.WriteFooter(e.mem, prev, size, false, prevPrevAlloc)
		return prev
	}
}

// findFit walks the segregated lists from the size class of asize upward,
// resuming each list at its cursor, and returns the first block large
// enough, or 0 if none exists.
func (e *Engine) findFit(asize uint64) uint64 {
	start := freelist.ClassOf(asize)
	for i := start; i < e.cfg.NumLists; i++ {
		cursor := e.lists.Cursor(i)
		iter := cursor
		if iter == 0 {
			iter = e.lists.Root(i)
		}
		for iter != 0 {
			if asize <= block.Size(e.mem, iter) {
				e.lists.SetCursor(i, e.lists.Next(iter))
				return iter
			}
			iter = e.lists.Next(iter)
		}
	}
	return 0
}

// place carves asize bytes out of the free block at addr (already removed
// from its free list), splitting off and re-inserting a free remainder when
// it would be at least MinBlock, or consuming the whole block otherwise.
//
// addr is free on entry, so its current successor's prev-alloc bit already
// reads false; a split leaves that successor's predecessor (now the
// remainder) still free, so that bit needs no change. Full consumption
// makes addr allocated, so only that branch needs to flip it.
func (e *Engine) place(addr, asize uint64) {
	csize := block.Size(e.mem, addr)
	prevAlloc := block.PrevAlloc(e.mem, addr)

	if csize-asize >= e.cfg.MinBlock {
		block.WriteHeader(e.mem, addr, asize, true, prevAlloc)

		remainder := addr + asize
		remSize := csize - asize
		block.WriteHeader(e.mem, remainder, remSize, false, true)
		block.WriteFooter(e.mem, remainder, remSize, false, true)

		if addr == e.lastBlock {
			e.lastBlock = remainder
		}
		e.lists.Insert(remainder, remSize)
	} else {
		block.WriteHeader(e.mem, addr, csize, true, prevAlloc)
		e.setSuccessorPrevAlloc(addr, true)
	}
}

// Malloc allocates at least size bytes and returns the payload address, or
// 0 on out-of-memory or a spurious size==0 request. The heap is
// lazily initialized on first use.
func (e *Engine) Malloc(size uint64) (uint64, error) {
	if err := e.ensureInit(); err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, nil
	}

	asize := block.AdjustRequestSize(size)

	addr := e.findFit(asize)
	if addr == 0 {
		extendSize := asize
		if e.cfg.Chunk > extendSize {
			extendSize = e.cfg.Chunk
		}
		newBlock, err := e.extendHeap(extendSize)
		if err != nil {
			return 0, err
		}
		addr = newBlock
	} else {
		e.lists.Remove(addr, block.Size(e.mem, addr))
	}

	e.place(addr, asize)
	e.debugf("malloc(%d) -> 0x%x (block 0x%x size %d)", size, block.PayloadAddr(addr), addr, asize)
	return block.PayloadAddr(addr), nil
}

// Free releases the block at ptr. Idempotent/no-op on ptr==0, matching
// free(NULL).
func (e *Engine) Free(ptr uint64) {
	if ptr == 0 {
		return
	}

	addr := block.HeaderAddr(ptr)
	size := block.Size(e.mem, addr)
	prevAlloc := block.PrevAlloc(e.mem, addr)

	block.WriteHeader(e.mem, addr, size, false, prevAlloc)
	block.WriteFooter(e.mem, addr, size, false, prevAlloc)

	merged := e.coalesce(addr)
	e.setSuccessorPrevAlloc(merged, false)
	e.lists.Insert(merged, block.Size(e.mem, merged))
	e.debugf("free(0x%x) -> merged block 0x%x size %d", ptr, merged, block.Size(e.mem, merged))
}

// Realloc resizes the allocation at ptr to size bytes. A nil ptr (0)
// behaves like Malloc; a zero size behaves like Free and returns 0. On
// allocation failure the original block is left untouched. No in-place
// growth or shrink is attempted (a policy choice, not a bug).
func (e *Engine) Realloc(ptr, size uint64) (uint64, error) {
	if ptr == 0 {
		return e.Malloc(size)
	}
	if size == 0 {
		e.Free(ptr)
		return 0, nil
	}

	oldAddr := block.HeaderAddr(ptr)
	oldPayloadSize := block.Size(e.mem, oldAddr) - e.cfg.Word

	newPtr, err := e.Malloc(size)
	if err != nil {
		return 0, err
	}

	copySize := oldPayloadSize
	if size < copySize {
		copySize = size
	}
	e.copyBytes(newPtr, ptr, copySize)

	e.Free(ptr)
	return newPtr, nil
}

// Calloc allocates space for nmemb elements of size bytes each and zeroes
// it, failing with ErrOverflow if the multiplication overflows rather than
// allocating a truncated amount.
func (e *Engine) Calloc(nmemb, size uint64) (uint64, error) {
	if nmemb == 0 || size == 0 {
		return e.Malloc(0)
	}

	total := nmemb * size
	if total/nmemb != size {
		return 0, fmt.Errorf("heap: calloc(%d, %d): %w", nmemb, size, allocerrors.ErrOverflow)
	}

	ptr, err := e.Malloc(total)
	if err != nil || ptr == 0 {
		return 0, err
	}

	e.zeroBytes(ptr, total)
	return ptr, nil
}

// copyBytes copies n bytes word-at-a-time from src to dst payload
// addresses, falling back to nothing for a zero-length copy. Sizes here are
// always block payload sizes, not arbitrary byte ranges, so a word-wise
// copy that may touch up to 7 trailing bytes beyond n is safe: payloads are
// always at least MinBlock-Word bytes and 16-aligned.
func (e *Engine) copyBytes(dst, src, n uint64) {
	var i uint64
	for ; i+e.cfg.Word <= n; i += e.cfg.Word {
		e.mem.WriteWord(dst+i, e.mem.ReadWord(src+i))
	}
	if i < n {
		// Partial trailing word: merge so we don't clobber bytes past n
		// that belong to the destination block's own payload.
		tail := e.mem.ReadWord(src + i)
		existing := e.mem.ReadWord(dst + i)
		mask := uint64(1)<<(8*(n-i)) - 1
		e.mem.WriteWord(dst+i, (tail&mask)|(existing&^mask))
	}
}

// zeroBytes zeroes n bytes of the payload at ptr, word-at-a-time with the
// same partial-trailing-word handling as copyBytes.
func (e *Engine) zeroBytes(ptr, n uint64) {
	var i uint64
	for ; i+e.cfg.Word <= n; i += e.cfg.Word {
		e.mem.WriteWord(ptr+i, 0)
	}
	if i < n {
		existing := e.mem.ReadWord(ptr + i)
		mask := uint64(1)<<(8*(n-i)) - 1
		e.mem.WriteWord(ptr+i, existing&^mask)
	}
}
