package heap

import (
	"log"

	"github.com/mohammadshaheer4/malloclab/internal/block"
	"github.com/mohammadshaheer4/malloclab/internal/freelist"
)

// CheckHeap validates every invariant in spec.md §8 by walking the block
// sequence twice (once for per-block checks, once to count free blocks) and
// every free list once. line identifies the call site in
// log output (mirroring mm_checkheap(int lineno) in the C original) and has
// no effect on the result. It reports false on the first violation found
// and logs a diagnostic via the standard logger regardless of e.Debug,
// since a checker failure is always a programmer error worth surfacing.
func (e *Engine) CheckHeap(line int) bool {
	if !e.initialized {
		log.Printf("checkheap(%d): heap not initialized", line)
		return false
	}

	if !e.checkSequence(line) {
		return false
	}
	if !e.checkLists(line) {
		return false
	}
	return true
}

// checkSequence walks every block from heap_listp to the epilogue, checking
// size/alignment, footer agreement on free blocks, prev-alloc propagation,
// and the no-adjacent-free-blocks rule. Free-block counting for the
// list cross-check is done separately by checkLists.
func (e *Engine) checkSequence(line int) bool {
	addr := e.heapListp
	prevWasFree := false

	for {
		size := block.Size(e.mem, addr)
		alloc := block.Alloc(e.mem, addr)

		if size == 0 {
			// Epilogue: zero-size sentinel, always marked allocated.
			if !alloc {
				log.Printf("checkheap(%d): epilogue at 0x%x not marked allocated", line, addr)
				return false
			}
			break
		}

		if size%e.cfg.Alignment != 0 || size < e.cfg.MinBlock {
			log.Printf("checkheap(%d): block 0x%x has illegal size %d", line, addr, size)
			return false
		}
		if !block.Aligned(block.PayloadAddr(addr)) {
			log.Printf("checkheap(%d): block 0x%x payload misaligned", line, addr)
			return false
		}

		if !alloc {
			header := e.mem.ReadWord(addr)
			footer := e.mem.ReadWord(block.FooterAddr(addr, size))
			if header != footer {
				log.Printf("checkheap(%d): block 0x%x header/footer mismatch", line, addr)
				return false
			}
			if prevWasFree {
				log.Printf("checkheap(%d): block 0x%x and its predecessor are both free", line, addr)
				return false
			}
		}

		if addr != e.heapListp {
			predecessorAlloc := !prevWasFree
			if block.PrevAlloc(e.mem, addr) != predecessorAlloc {
				log.Printf("checkheap(%d): block 0x%x prev_alloc bit disagrees with predecessor", line, addr)
				return false
			}
		}

		prevWasFree = !alloc
		addr = block.FindNext(e.mem, addr)
	}
	return true
}

// checkLists validates every segregated list: size-class membership,
// doubly-linked consistency, acyclicity, and that the total free-list
// length matches the count of free blocks found by checkSequence.
func (e *Engine) checkLists(line int) bool {
	var listTotal, seqTotal int

	addr := e.heapListp
	for {
		size := block.Size(e.mem, addr)
		if size == 0 {
			break
		}
		if !block.Alloc(e.mem, addr) {
			seqTotal++
		}
		addr = block.FindNext(e.mem, addr)
	}

	for i := 0; i < e.cfg.NumLists; i++ {
		if !e.lists.IsAcyclic(i) {
			log.Printf("checkheap(%d): list %d is cyclic", line, i)
			return false
		}

		for b := e.lists.Root(i); b != 0; b = e.lists.Next(b) {
			listTotal++
			size := block.Size(e.mem, b)

			if !freelist.InClass(i, size) {
				log.Printf("checkheap(%d): block 0x%x of size %d misfiled in list %d", line, b, size, i)
				return false
			}
			if block.Alloc(e.mem, b) {
				log.Printf("checkheap(%d): allocated block 0x%x present in free list %d", line, b, i)
				return false
			}
			if next := e.lists.Next(b); next != 0 && e.lists.Prev(next) != b {
				log.Printf("checkheap(%d): list %d broken link at 0x%x", line, i, b)
				return false
			}
		}
	}

	if listTotal != seqTotal {
		log.Printf("checkheap(%d): free list total %d disagrees with sequence free count %d", line, listTotal, seqTotal)
		return false
	}
	return true
}
