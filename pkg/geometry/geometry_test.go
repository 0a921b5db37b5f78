package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplifyPath_CollinearCollapse(t *testing.T) {
	path := []Point2D{{0, 0}, {1, 0.01}, {2, -0.01}, {3, 0}, {4, 0}}
	simplified := SimplifyPath(path, 0.5)

	assert.Equal(t, []Point2D{{0, 0}, {4, 0}}, simplified)
}

func TestSimplifyPath_KeepsCorners(t *testing.T) {
	path := []Point2D{{0, 0}, {5, 0}, {5, 5}}
	simplified := SimplifyPath(path, 0.5)

	assert.Equal(t, path, simplified)
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox([]Point2D{{2, 3}, {-1, 7}, {4, 1}})

	assert.Equal(t, Rect{X: -1, Y: 1, Width: 5, Height: 6}, box)
	assert.Equal(t, Rect{}, BoundingBox(nil))
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Point2D{0, 0}.Distance(Point2D{3, 4}), 1e-9)
}
