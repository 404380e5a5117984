package region

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	allocerrors "github.com/mohammadshaheer4/malloclab/internal/errors"
)

// wasmPageSize is the fixed size, in bytes, of one unit of WASM linear
// memory growth (api.Memory.Grow's unit).
const wasmPageSize = 65536

// minimalMemoryModule is a hand-assembled WASM binary exporting a single
// growable linear memory named "memory" and nothing else: no functions, no
// data segments. The engine never executes guest code, only grows and
// touches the memory directly through wazero's host-side api.Memory, so a
// code section would be dead weight.
//
// Layout: magic + version, then a memory section (one memtype, min 0
// pages, max 65536 pages) and an export section exporting it as "memory".
var minimalMemoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // \0asm, version 1
	0x05, 0x06, 0x01, 0x01, 0x00, 0x80, 0x80, 0x04, // section 5 (memory): 1 entry, limits{min=0,max=65536}
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00, // section 7 (export): "memory" -> memory 0
}

// WazeroProvider backs the region with a WASM module's linear memory,
// instantiated and grown through wazero, mirroring how internal/wasm.Runtime
// hosts a guest module's memory in the teacher this package is adapted
// from. sbrk here is literally a wrapped api.Memory.Grow.
type WazeroProvider struct {
	ctx context.Context
	rt  wazero.Runtime
	mem api.Memory

	size uint64 // logical high-water mark; may be < mem.Size() due to page rounding
	// Debug gates verbose sbrk tracing, off by default.
	Debug bool
}

// NewWazeroProvider compiles and instantiates the minimal memory module and
// returns a Provider backed by its linear memory. The returned provider
// owns a wazero.Runtime; call Close when done with it.
func NewWazeroProvider(ctx context.Context) (*WazeroProvider, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig())

	compiled, err := rt.CompileModule(ctx, minimalMemoryModule)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("region: compile memory module: %w", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("malloclab-region"))
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("region: instantiate memory module: %w", err)
	}

	mem := mod.Memory()
	if mem == nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("region: instantiated module exposes no memory")
	}

	return &WazeroProvider{ctx: ctx, rt: rt, mem: mem}, nil
}

// Close releases the underlying wazero runtime and its memory.
func (p *WazeroProvider) Close() error { return p.rt.Close(p.ctx) }

func (p *WazeroProvider) Sbrk(n uint64) (uint64, error) {
	old := p.size
	needed := old + n
	if have := uint64(p.mem.Size()); needed > have {
		deltaPages := (needed - have + wasmPageSize - 1) / wasmPageSize
		if _, ok := p.mem.Grow(uint32(deltaPages)); !ok {
			return 0, fmt.Errorf("region: grow wasm memory by %d pages: %w", deltaPages, allocerrors.ErrOutOfMemory)
		}
	}
	p.size = needed
	if p.Debug {
		log.Printf("region(wasm): sbrk(%d) -> [%d, %d)", n, old, needed)
	}
	return old, nil
}

func (p *WazeroProvider) HeapLo() uint64 { return 0 }

func (p *WazeroProvider) HeapHi() uint64 { return p.size - 1 }

func (p *WazeroProvider) ReadWord(addr uint64) uint64 {
	b, ok := p.mem.Read(uint32(addr), 8)
	if !ok {
		panic(fmt.Sprintf("region(wasm): read out of bounds at 0x%x", addr))
	}
	return binary.LittleEndian.Uint64(b)
}

func (p *WazeroProvider) WriteWord(addr uint64, w uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], w)
	if !p.mem.Write(uint32(addr), buf[:]) {
		panic(fmt.Sprintf("region(wasm): write out of bounds at 0x%x", addr))
	}
}
