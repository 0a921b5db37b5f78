package mask

import (
	"testing"

	"cell-annotator/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64) []geometry.Point2D {
	return []geometry.Point2D{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}
}

func TestStore_PaintAssignsSequentialIDs(t *testing.T) {
	s := NewStore(32, 32)

	id1, err := s.Paint(square(1, 1, 3))
	require.NoError(t, err)
	id2, err := s.Paint(square(10, 1, 3))
	require.NoError(t, err)
	id3, err := s.Paint(square(20, 1, 3))
	require.NoError(t, err)

	assert.Equal(t, uint16(1), id1)
	assert.Equal(t, uint16(2), id2)
	assert.Equal(t, uint16(3), id3)
	assert.Equal(t, []uint16{1, 2, 3}, s.InstanceIDs())
}

func TestStore_PaintNeverOverwritesExisting(t *testing.T) {
	s := NewStore(16, 16)

	_, err := s.Paint(square(2, 2, 6))
	require.NoError(t, err)

	// Overlapping stroke only claims the uncovered pixels
	id2, err := s.Paint(square(5, 5, 6))
	require.NoError(t, err)

	assert.Equal(t, uint16(1), s.Raster().At(6, 6), "existing instance keeps its pixels")
	assert.Equal(t, id2, s.Raster().At(10, 10))
}

func TestStore_FullyCoveredPaintIsRejected(t *testing.T) {
	s := NewStore(16, 16)
	_, err := s.Paint(square(1, 1, 8))
	require.NoError(t, err)

	before := s.Snapshot()
	nextBefore := s.NextID()

	_, err = s.Paint(square(3, 3, 2))
	assert.ErrorIs(t, err, ErrEmptyPaint)
	assert.True(t, s.Raster().Equal(before), "rejected paint must not mutate the raster")
	assert.Equal(t, nextBefore, s.NextID(), "rejected paint must not consume an ID")
}

func TestStore_PaintTooFewPoints(t *testing.T) {
	s := NewStore(8, 8)
	_, err := s.Paint([]geometry.Point2D{{X: 1, Y: 1}, {X: 2, Y: 2}})
	assert.ErrorIs(t, err, ErrEmptyPaint)
}

func TestStore_EraseRemovesExactlyOneInstance(t *testing.T) {
	s := NewStore(32, 32)
	id1, err := s.Paint(square(1, 1, 4))
	require.NoError(t, err)
	id2, err := s.Paint(square(10, 10, 4))
	require.NoError(t, err)

	erased, err := s.EraseAt(2, 2)
	require.NoError(t, err)
	assert.Equal(t, id1, erased)

	for _, v := range s.Raster().Pix {
		assert.NotEqual(t, id1, v)
	}
	assert.Equal(t, id2, s.Raster().At(11, 11))
}

func TestStore_EraseBackground(t *testing.T) {
	s := NewStore(8, 8)
	_, err := s.EraseAt(0, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.EraseAt(-1, 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_IDsNotReusedAfterErase(t *testing.T) {
	s := NewStore(16, 16)
	id1, err := s.Paint(square(1, 1, 4))
	require.NoError(t, err)

	_, err = s.EraseAt(2, 2)
	require.NoError(t, err)

	id2, err := s.Paint(square(1, 1, 4))
	require.NoError(t, err)
	assert.Greater(t, id2, id1, "erased IDs stay retired within a session")
}

func TestStore_ReplaceRecomputesNextID(t *testing.T) {
	s := NewStore(8, 8)
	r := NewRaster(8, 8)
	r.Set(3, 3, 7)

	s.Replace(r)
	assert.Equal(t, uint16(8), s.NextID())

	s.Replace(NewRaster(8, 8))
	assert.Equal(t, uint16(1), s.NextID())
}

func TestNewStoreFromRaster(t *testing.T) {
	r := NewRaster(8, 8)
	r.Set(1, 1, 4)
	r.Set(2, 2, 2)

	s := NewStoreFromRaster(r)
	assert.Equal(t, uint16(5), s.NextID())
	assert.Equal(t, 2, s.InstanceCount())
}
