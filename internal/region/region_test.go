package region

import (
	"testing"

	allocerrors "github.com/mohammadshaheer4/malloclab/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceProviderSbrkGrowsMonotonically(t *testing.T) {
	p := NewSliceProvider()

	a, err := p.Sbrk(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), a)
	assert.Equal(t, uint64(32), p.Len())

	b, err := p.Sbrk(64)
	require.NoError(t, err)
	assert.Equal(t, uint64(32), b)
	assert.Equal(t, uint64(96), p.Len())
}

func TestSliceProviderReadWriteWordRoundTrip(t *testing.T) {
	p := NewSliceProvider()
	_, err := p.Sbrk(32)
	require.NoError(t, err)

	p.WriteWord(8, 0xdeadbeefcafef00d)
	assert.Equal(t, uint64(0xdeadbeefcafef00d), p.ReadWord(8))
}

func TestSliceProviderMaxSizeRejectsGrowth(t *testing.T) {
	p := NewSliceProvider()
	p.MaxSize = 64

	_, err := p.Sbrk(64)
	require.NoError(t, err)

	_, err = p.Sbrk(16)
	require.Error(t, err)
	assert.ErrorIs(t, err, allocerrors.ErrOutOfMemory)
}

func TestSliceProviderHeapBounds(t *testing.T) {
	p := NewSliceProvider()
	_, err := p.Sbrk(48)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), p.HeapLo())
	assert.Equal(t, uint64(47), p.HeapHi())
}
