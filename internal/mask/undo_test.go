package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_LIFO(t *testing.T) {
	h := NewHistory()

	r1 := NewRaster(4, 4)
	r1.Set(0, 0, 1)
	r2 := NewRaster(4, 4)
	r2.Set(0, 0, 2)

	h.Push(r1)
	h.Push(r2)

	assert.Same(t, r2, h.Pop())
	assert.Same(t, r1, h.Pop())
	assert.Nil(t, h.Pop())
}

func TestHistory_CapDropsOldest(t *testing.T) {
	h := NewHistory()

	for i := 0; i < DefaultHistoryLimit+1; i++ {
		r := NewRaster(2, 2)
		r.Set(0, 0, uint16(i+1))
		h.Push(r)
	}

	assert.Equal(t, DefaultHistoryLimit, h.Len())

	// Oldest (ID 1) was dropped; the bottom of the stack is ID 2
	var last *Raster
	for h.Len() > 0 {
		last = h.Pop()
	}
	require.NotNil(t, last)
	assert.Equal(t, uint16(2), last.At(0, 0))
}

func TestHistory_SnapshotRestoresExactly(t *testing.T) {
	s := NewStore(8, 8)
	h := NewHistory()

	_, err := s.Paint(square(1, 1, 3))
	require.NoError(t, err)

	h.Push(s.Snapshot())
	before := s.Snapshot()

	_, err = s.Paint(square(5, 5, 2))
	require.NoError(t, err)

	s.Replace(h.Pop())
	assert.True(t, s.Raster().Equal(before))
	assert.Equal(t, uint16(2), s.NextID())
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory()
	h.Push(NewRaster(2, 2))
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Nil(t, h.Pop())
}
