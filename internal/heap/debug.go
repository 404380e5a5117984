package heap

import (
	"fmt"
	"io"

	"github.com/mohammadshaheer4/malloclab/internal/block"
)

// DumpHeap writes a one-line-per-block trace of the heap to w: address,
// size, allocated/free, and the prev-allocated bit. It is the programmer's
// tool for inspecting a heap that check_heap has just failed on. Unlike the
// engine's log tracing it does not consult Engine.Debug: it always writes.
func (e *Engine) DumpHeap(w io.Writer) {
	if !e.initialized {
		fmt.Fprintln(w, "heap: uninitialized")
		return
	}

	addr := e.heapListp
	for {
		size := block.Size(e.mem, addr)
		alloc := block.Alloc(e.mem, addr)
		prevAlloc := block.PrevAlloc(e.mem, addr)

		if size == 0 {
			fmt.Fprintf(w, "0x%08x epilogue prev_alloc=%t\n", addr, prevAlloc)
			break
		}

		state := "FREE"
		if alloc {
			state = "ALLOC"
		}
		fmt.Fprintf(w, "0x%08x size=%-6d %-5s prev_alloc=%t\n", addr, size, state, prevAlloc)
		addr = block.FindNext(e.mem, addr)
	}
}
