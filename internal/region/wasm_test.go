package region

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWazeroProviderSbrkGrowsPagesLazily(t *testing.T) {
	ctx := context.Background()
	p, err := NewWazeroProvider(ctx)
	require.NoError(t, err)
	defer p.Close()

	a, err := p.Sbrk(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), a)

	// A small sbrk must not leave the region smaller than it reports.
	assert.GreaterOrEqual(t, uint64(p.mem.Size()), uint64(32))

	b, err := p.Sbrk(wasmPageSize * 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(32), b)
	assert.GreaterOrEqual(t, uint64(p.mem.Size()), uint64(32)+wasmPageSize*2)
}

func TestWazeroProviderReadWriteWordRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := NewWazeroProvider(ctx)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Sbrk(64)
	require.NoError(t, err)

	p.WriteWord(16, 0x0102030405060708)
	assert.Equal(t, uint64(0x0102030405060708), p.ReadWord(16))
}

func TestWazeroProviderHeapBounds(t *testing.T) {
	ctx := context.Background()
	p, err := NewWazeroProvider(ctx)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Sbrk(40)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), p.HeapLo())
	assert.Equal(t, uint64(39), p.HeapHi())
}
