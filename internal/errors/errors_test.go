package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocErrorIsSentinel(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		target  error
		matches bool
	}{
		{"out of memory matches its sentinel", New(KindOutOfMemory, "sbrk refused"), ErrOutOfMemory, true},
		{"overflow matches its sentinel", New(KindOverflow, "nmemb*size overflow"), ErrOverflow, true},
		{"out of memory does not match overflow", New(KindOutOfMemory, "sbrk refused"), ErrOverflow, false},
		{"uninitialized matches its sentinel", New(KindUninitialized, "init not called"), ErrUninitialized, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, errors.Is(tt.err, tt.target))
		})
	}
}

func TestAllocErrorMessageIncludesDetail(t *testing.T) {
	err := New(KindOutOfMemory, "region capped at 4096 bytes")
	assert.Contains(t, err.Error(), "region capped at 4096 bytes")
	assert.Contains(t, err.Error(), KindOutOfMemory.String())
}
