package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMemory struct {
	words map[uint64]uint64
}

func newFakeMemory() *fakeMemory { return &fakeMemory{words: make(map[uint64]uint64)} }

func (m *fakeMemory) ReadWord(addr uint64) uint64  { return m.words[addr] }
func (m *fakeMemory) WriteWord(addr, w uint64)     { m.words[addr] = w }

func TestPackAndExtract(t *testing.T) {
	tests := []struct {
		name      string
		size      uint64
		alloc     bool
		prevAlloc bool
	}{
		{"free, prev allocated", 48, false, true},
		{"allocated, prev free", 32, true, false},
		{"allocated, prev allocated", 4096, true, true},
		{"free, prev free", 64, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word := Pack(tt.size, tt.alloc, tt.prevAlloc)
			assert.Equal(t, tt.size, ExtractSize(word))
			assert.Equal(t, tt.alloc, ExtractAlloc(word))
			assert.Equal(t, tt.prevAlloc, ExtractPrevAlloc(word))
		})
	}
}

func TestHeaderFooterRoundTrip(t *testing.T) {
	mem := newFakeMemory()
	WriteHeader(mem, 100, 64, false, true)
	WriteFooter(mem, 100, 64, false, true)

	assert.Equal(t, uint64(64), Size(mem, 100))
	assert.False(t, Alloc(mem, 100))
	assert.True(t, PrevAlloc(mem, 100))
	assert.Equal(t, mem.ReadWord(100), mem.ReadWord(FooterAddr(100, 64)))
}

func TestSetPrevAllocBitLeavesSizeAndAllocUntouched(t *testing.T) {
	mem := newFakeMemory()
	WriteHeader(mem, 0, 128, true, false)

	SetPrevAllocBit(mem, 0, true)
	assert.Equal(t, uint64(128), Size(mem, 0))
	assert.True(t, Alloc(mem, 0))
	assert.True(t, PrevAlloc(mem, 0))

	SetPrevAllocBit(mem, 0, false)
	assert.Equal(t, uint64(128), Size(mem, 0))
	assert.True(t, Alloc(mem, 0))
	assert.False(t, PrevAlloc(mem, 0))
}

func TestFindNextAndFindPrev(t *testing.T) {
	mem := newFakeMemory()
	WriteHeader(mem, 0, 48, false, true)
	WriteFooter(mem, 0, 48, false, true)
	WriteHeader(mem, 48, 32, true, false)

	next := FindNext(mem, 0)
	assert.Equal(t, uint64(48), next)

	prev := FindPrev(mem, next)
	assert.Equal(t, uint64(0), prev)
}

func TestPayloadAndHeaderAddr(t *testing.T) {
	assert.Equal(t, uint64(108), PayloadAddr(100))
	assert.Equal(t, uint64(100), HeaderAddr(108))
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		x, m, want uint64
	}{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{31, 16, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlignUp(tt.x, tt.m))
	}
}

func TestAdjustRequestSize(t *testing.T) {
	tests := []struct {
		name string
		n    uint64
		want uint64
	}{
		{"zero", 0, MinSize},
		{"tiny request shares min class", 24, MinSize},
		{"one byte over the min-class boundary", 25, 48},
		{"exactly a word", 8, MinSize},
		{"typical scenario request", 2000, 2016},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustRequestSize(tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, Aligned(got))
			assert.GreaterOrEqual(t, got, uint64(MinSize))
		})
	}
}
