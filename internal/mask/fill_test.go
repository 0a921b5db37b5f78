package mask

import (
	"testing"

	"cell-annotator/pkg/geometry"

	"github.com/stretchr/testify/assert"
)

func TestFillPolygon_Triangle(t *testing.T) {
	tri := []geometry.Point2D{{X: 1, Y: 1}, {X: 5, Y: 1}, {X: 1, Y: 5}}
	bm := FillPolygon(tri, 10, 10)

	// Vertices are part of the region
	assert.True(t, bm.At(1, 1))
	assert.True(t, bm.At(5, 1))
	assert.True(t, bm.At(1, 5))

	// Interior
	assert.True(t, bm.At(2, 2))

	// Outside the triangle
	assert.False(t, bm.At(5, 5))
	assert.False(t, bm.At(6, 1))
	assert.False(t, bm.At(0, 0))
}

func TestFillPolygon_Square(t *testing.T) {
	sq := []geometry.Point2D{{X: 1, Y: 1}, {X: 4, Y: 1}, {X: 4, Y: 4}, {X: 1, Y: 4}}
	bm := FillPolygon(sq, 10, 10)

	for y := 1; y <= 4; y++ {
		for x := 1; x <= 4; x++ {
			assert.True(t, bm.At(x, y), "pixel (%d,%d) should be filled", x, y)
		}
	}
	assert.Equal(t, 16, bm.Count())
}

func TestFillPolygon_TooFewPoints(t *testing.T) {
	bm := FillPolygon([]geometry.Point2D{{X: 1, Y: 1}, {X: 5, Y: 5}}, 10, 10)
	assert.Equal(t, 0, bm.Count())
}

func TestFillPolygon_ClampsToBounds(t *testing.T) {
	// Polygon partly outside the grid must not panic and must clip
	poly := []geometry.Point2D{{X: -5, Y: -5}, {X: 3, Y: -5}, {X: 3, Y: 3}, {X: -5, Y: 3}}
	bm := FillPolygon(poly, 6, 6)

	assert.True(t, bm.At(0, 0))
	assert.True(t, bm.At(3, 3))
	assert.False(t, bm.At(4, 4))
}

func TestFillPolygon_SelfIntersectingIsDeterministic(t *testing.T) {
	// Bowtie: even-odd rule fills the two lobes
	bowtie := []geometry.Point2D{{X: 0, Y: 0}, {X: 8, Y: 8}, {X: 8, Y: 0}, {X: 0, Y: 8}}
	a := FillPolygon(bowtie, 10, 10)
	b := FillPolygon(bowtie, 10, 10)

	assert.Equal(t, a.Pix, b.Pix)
	assert.Greater(t, a.Count(), 0)
}
