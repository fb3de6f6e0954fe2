package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowCapsAtPhysicalEnd(t *testing.T) {
	b := New(16)

	w := b.Window(12, 100, 0)
	require.Len(t, w, 4, "window must stop at the physical end of the buffer")
}

func TestWindowCapsAtAvail(t *testing.T) {
	b := New(16)

	w := b.Window(0, 3, 0)
	assert.Len(t, w, 3)
}

func TestWindowCapsAtBlockSize(t *testing.T) {
	b := New(16)

	w := b.Window(0, 16, 5)
	assert.Len(t, w, 5)
}

func TestWindowZeroAvailReturnsNil(t *testing.T) {
	b := New(16)
	assert.Nil(t, b.Window(0, 0, 0))
	assert.Nil(t, b.Window(0, -1, 0))
}

func TestWindowWrapsAtModulo(t *testing.T) {
	b := New(16)

	w := b.Window(20, 100, 0)
	require.Len(t, w, 12)
}

func TestMinOffset(t *testing.T) {
	assert.Equal(t, uint64(3), MinOffset(10, 3, 7))
	assert.Equal(t, uint64(0), MinOffset())
	assert.Equal(t, uint64(5), MinOffset(5))
}

func TestFreeBytes(t *testing.T) {
	assert.Equal(t, 16, FreeBytes(0, 0, 16))
	assert.Equal(t, 6, FreeBytes(10, 0, 16))
	assert.Equal(t, 0, FreeBytes(20, 0, 16), "overrun clamps to zero, never negative")
}

func TestFilledBytes(t *testing.T) {
	assert.Equal(t, 0, FilledBytes(0, 0))
	assert.Equal(t, 10, FilledBytes(10, 0))
	assert.Equal(t, 0, FilledBytes(5, 10), "a consumer ahead of the producer clamps to zero")
}
