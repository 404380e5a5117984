// Package region implements the external collaborator spec.md's allocator
// sits on top of: sbrk/heap_lo/heap_hi over a single, monotonically
// growable byte region. The engine in internal/heap never reaches into a
// provider's storage directly; it only grows it and reads/writes whole
// words through the Provider interface, so any backing store — a plain
// Go slice, or a WASM linear memory grown through wazero — can stand in.
package region

import (
	"encoding/binary"
	"fmt"
	"log"

	allocerrors "github.com/mohammadshaheer4/malloclab/internal/errors"
)

// Provider is the sbrk/heap_lo/heap_hi collaborator the engine depends on.
type Provider interface {
	// Sbrk extends the region by exactly n bytes (always a multiple of 16)
	// and returns the start address of the new region, i.e. the previous
	// high-water mark.
	Sbrk(n uint64) (uint64, error)
	// HeapLo returns the lowest valid address in the region.
	HeapLo() uint64
	// HeapHi returns the highest valid address (inclusive) in the region.
	HeapHi() uint64
	// ReadWord and WriteWord access a single 8-byte word at addr.
	ReadWord(addr uint64) uint64
	WriteWord(addr uint64, w uint64)
}

// SliceProvider is the default Provider: a plain growable []byte, the
// direct descendant of internal/runtime.Runtime's memory []byte plus
// Read/Write/Free helpers. It never shrinks and never returns bytes to Go's
// own allocator, matching spec.md's "never releases memory back" rule.
type SliceProvider struct {
	mem []byte
	// MaxSize, if non-zero, caps how large the region may grow; Sbrk past
	// it fails with ErrOutOfMemory. Zero means unbounded. Exists so tests
	// can exercise the out-of-memory path without allocating real memory.
	MaxSize uint64
	// Debug gates verbose sbrk tracing, off by default.
	Debug bool
}

// NewSliceProvider returns an empty, ungrown region.
func NewSliceProvider() *SliceProvider {
	return &SliceProvider{mem: make([]byte, 0)}
}

func (p *SliceProvider) Sbrk(n uint64) (uint64, error) {
	old := uint64(len(p.mem))
	if p.MaxSize != 0 && old+n > p.MaxSize {
		return 0, fmt.Errorf("region: sbrk(%d) would exceed max size %d: %w", n, p.MaxSize, allocerrors.ErrOutOfMemory)
	}
	p.mem = append(p.mem, make([]byte, n)...)
	if p.Debug {
		log.Printf("region: sbrk(%d) -> [%d, %d)", n, old, old+n)
	}
	return old, nil
}

func (p *SliceProvider) HeapLo() uint64 { return 0 }

func (p *SliceProvider) HeapHi() uint64 { return uint64(len(p.mem)) - 1 }

func (p *SliceProvider) ReadWord(addr uint64) uint64 {
	return binary.LittleEndian.Uint64(p.mem[addr : addr+8])
}

func (p *SliceProvider) WriteWord(addr uint64, w uint64) {
	binary.LittleEndian.PutUint64(p.mem[addr:addr+8], w)
}

// Len reports the current region size in bytes, mostly useful for tests and
// for the trace CLI's reporting.
func (p *SliceProvider) Len() uint64 { return uint64(len(p.mem)) }
