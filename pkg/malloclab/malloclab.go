// Package malloclab is the public surface over the allocation engine: a
// thin Allocator wrapping a region provider and an internal/heap.Engine,
// mirroring how pkg/spacetimedb.Client wraps a runtime and a database.
package malloclab

import (
	"context"
	"fmt"
	"io"

	"github.com/mohammadshaheer4/malloclab/internal/heap"
	"github.com/mohammadshaheer4/malloclab/internal/region"
)

// Backend selects which region.Provider an Allocator is built over.
type Backend int

const (
	// BackendSlice backs the heap with a plain growable []byte.
	BackendSlice Backend = iota
	// BackendWasm backs the heap with a WASM linear memory grown through wazero.
	BackendWasm
)

// Config configures a new Allocator.
type Config struct {
	// Backend selects the region provider. Defaults to BackendSlice.
	Backend Backend
	// HeapConfig overrides the engine's compile-time knobs. Defaults to
	// heap.DefaultConfig().
	HeapConfig heap.Config
	// MaxSize caps the region's growth for BackendSlice; ignored for
	// BackendWasm, which is capped by WASM's fixed page-address space.
	MaxSize uint64
	// Debug enables verbose tracing on the provider and the engine.
	Debug bool
}

// DefaultConfig returns a BackendSlice configuration with spec.md's default
// compile-time knobs and no size cap.
func DefaultConfig() Config {
	return Config{Backend: BackendSlice, HeapConfig: heap.DefaultConfig()}
}

// Allocator is the public handle over one heap instance. It is not safe for
// concurrent use: the engine it wraps is single-threaded and synchronous by
// design (spec.md §5).
type Allocator struct {
	provider heapProvider
	engine   *heap.Engine
	closer   func() error
}

// heapProvider is the narrow surface Allocator needs from whichever
// region.Provider backs it, kept here so Close can be a no-op for
// providers (like SliceProvider) that own no external resource.
type heapProvider interface {
	heap.Provider
}

// New constructs an Allocator per cfg and initializes its heap. Callers
// should defer Close to release any backend resources (only meaningful for
// BackendWasm, whose wazero runtime must be torn down explicitly).
func New(ctx context.Context, cfg Config) (*Allocator, error) {
	if cfg.HeapConfig == (heap.Config{}) {
		cfg.HeapConfig = heap.DefaultConfig()
	}

	var provider heapProvider
	closer := func() error { return nil }

	switch cfg.Backend {
	case BackendWasm:
		p, err := region.NewWazeroProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("malloclab: new wasm region: %w", err)
		}
		p.Debug = cfg.Debug
		provider = p
		closer = p.Close
	default:
		p := region.NewSliceProvider()
		p.MaxSize = cfg.MaxSize
		p.Debug = cfg.Debug
		provider = p
	}

	engine := heap.New(provider, cfg.HeapConfig)
	engine.Debug = cfg.Debug
	if err := engine.Init(); err != nil {
		closer()
		return nil, fmt.Errorf("malloclab: init: %w", err)
	}

	return &Allocator{provider: provider, engine: engine, closer: closer}, nil
}

// Close releases any resources owned by the Allocator's backend.
func (a *Allocator) Close() error { return a.closer() }

// Malloc allocates at least size bytes, returning the payload address (0 on
// failure or a size-0 request).
func (a *Allocator) Malloc(size uint64) (uint64, error) { return a.engine.Malloc(size) }

// Free releases the allocation at ptr. A no-op on ptr==0.
func (a *Allocator) Free(ptr uint64) { a.engine.Free(ptr) }

// Realloc resizes the allocation at ptr to size bytes.
func (a *Allocator) Realloc(ptr, size uint64) (uint64, error) { return a.engine.Realloc(ptr, size) }

// Calloc allocates and zeroes space for nmemb elements of size bytes each.
func (a *Allocator) Calloc(nmemb, size uint64) (uint64, error) { return a.engine.Calloc(nmemb, size) }

// CheckHeap validates every heap invariant, reporting the call site as
// line in diagnostic output.
func (a *Allocator) CheckHeap(line int) bool { return a.engine.CheckHeap(line) }

// ReadWord and WriteWord give test and CLI callers direct access to the
// underlying region, e.g. to verify payload contents after a copy.
func (a *Allocator) ReadWord(addr uint64) uint64   { return a.provider.ReadWord(addr) }
func (a *Allocator) WriteWord(addr uint64, w uint64) { a.provider.WriteWord(addr, w) }

// DumpHeap writes a block-by-block trace of the heap to w, for debugging a
// failed CheckHeap call.
func (a *Allocator) DumpHeap(w io.Writer) { a.engine.DumpHeap(w) }
