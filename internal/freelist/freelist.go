// Package freelist implements the segregated explicit free lists: 11
// unordered, doubly-linked chains through the first two payload words of
// each free block, plus a per-list resume cursor for the fit search.
package freelist

import "github.com/mohammadshaheer4/malloclab/internal/block"

// NumLists is the fixed number of size-classed free lists.
const NumLists = 11

// classUpper[i] is the inclusive upper bound, in bytes, of size class i.
// Class NumLists-1 has no upper bound.
var classUpper = [NumLists]uint64{64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 0}

// ClassOf returns the size-class index a block of the given size belongs
// in.
func ClassOf(size uint64) int {
	for i := 0; i < NumLists-1; i++ {
		if size <= classUpper[i] {
			return i
		}
	}
	return NumLists - 1
}

// InClass reports whether size falls within size class i's bounds, for use
// by the heap checker.
func InClass(i int, size uint64) bool {
	var lower uint64
	if i > 0 {
		lower = classUpper[i-1]
	}
	if i == NumLists-1 {
		return size > lower
	}
	return size > lower && size <= classUpper[i]
}

// Lists is the segregated free-list array plus its resume cursors, laid out
// as two NumLists-word arrays inside the backing Memory (the roots first,
// the cursors immediately after), exactly as mm_init allocates them.
type Lists struct {
	mem         block.Memory
	rootsAddr   uint64
	cursorsAddr uint64
}

// New wraps the roots/cursors arrays already reserved at the given
// addresses. Both arrays must already be zeroed (null roots, null
// cursors); New does not initialize them.
func New(mem block.Memory, rootsAddr, cursorsAddr uint64) *Lists {
	return &Lists{mem: mem, rootsAddr: rootsAddr, cursorsAddr: cursorsAddr}
}

// Reset zeroes every root and cursor, used once by Engine.Init.
func (l *Lists) Reset() {
	for i := 0; i < NumLists; i++ {
		l.setRoot(i, 0)
		l.SetCursor(i, 0)
	}
}

// Root returns the head of size class i's list, or 0 if empty.
func (l *Lists) Root(i int) uint64 { return l.mem.ReadWord(l.rootsAddr + uint64(i)*block.Word) }

func (l *Lists) setRoot(i int, addr uint64) { l.mem.WriteWord(l.rootsAddr+uint64(i)*block.Word, addr) }

// Cursor returns the resume point for the next fit search in size class i,
// or 0 to mean "start at the root".
func (l *Lists) Cursor(i int) uint64 { return l.mem.ReadWord(l.cursorsAddr + uint64(i)*block.Word) }

// SetCursor updates the resume point for size class i.
func (l *Lists) SetCursor(i int, addr uint64) { l.mem.WriteWord(l.cursorsAddr+uint64(i)*block.Word, addr) }

// Prev and Next read the embedded list links at a free block's two payload
// words (ptr_prev then ptr_next, per spec.md's layout).
func (l *Lists) Prev(addr uint64) uint64 { return l.mem.ReadWord(block.PayloadAddr(addr)) }
func (l *Lists) Next(addr uint64) uint64 { return l.mem.ReadWord(block.PayloadAddr(addr) + block.Word) }

func (l *Lists) setPrev(addr, v uint64) { l.mem.WriteWord(block.PayloadAddr(addr), v) }
func (l *Lists) setNext(addr, v uint64) { l.mem.WriteWord(block.PayloadAddr(addr)+block.Word, v) }

// Insert splices a free block at the head of its size class's list (LIFO).
// Callers are responsible for the block's header/footer already reflecting
// the free state; Insert only touches the list links.
func (l *Lists) Insert(addr, size uint64) {
	i := ClassOf(size)
	head := l.Root(i)
	l.setPrev(addr, 0)
	l.setNext(addr, head)
	if head != 0 {
		l.setPrev(head, addr)
	}
	l.setRoot(i, addr)
}

// Remove unlinks addr from its size class's list and repairs the resume
// cursor if it pointed at the removed block.
func (l *Lists) Remove(addr, size uint64) {
	i := ClassOf(size)
	prev := l.Prev(addr)
	next := l.Next(addr)

	switch {
	case prev == 0 && next == 0:
		l.setRoot(i, 0)
	case prev == 0 && next != 0:
		l.setRoot(i, next)
		l.setPrev(next, 0)
	case prev != 0 && next == 0:
		l.setNext(prev, 0)
	default:
		l.setNext(prev, next)
		l.setPrev(next, prev)
	}

	if l.Cursor(i) == addr {
		if next != 0 {
			l.SetCursor(i, next)
		} else {
			l.SetCursor(i, l.Root(i))
		}
	}
}

// IsAcyclic walks size class i's list with tortoise-and-hare and reports
// whether it is free of cycles.
func (l *Lists) IsAcyclic(i int) bool {
	tortoise := l.Root(i)
	if tortoise == 0 {
		return true
	}
	hare := l.Next(tortoise)
	for hare != tortoise {
		if hare == 0 {
			return true
		}
		hareNext := l.Next(hare)
		if hareNext == 0 {
			return true
		}
		tortoise = l.Next(tortoise)
		hare = l.Next(hareNext)
	}
	return false
}
