package mask

import (
	"math"
	"sort"

	"cell-annotator/pkg/geometry"
)

// Bitmap is a binary pixel grid used as the intermediate result of
// polygon rasterization.
type Bitmap struct {
	Width  int
	Height int
	Pix    []bool // row-major, len = Width*Height
}

// NewBitmap creates an empty bitmap of the given dimensions.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// At returns the pixel at (x, y), or false for out-of-bounds coordinates.
func (b *Bitmap) At(x, y int) bool {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return false
	}
	return b.Pix[y*b.Width+x]
}

// Set writes the pixel at (x, y). Out-of-bounds writes are ignored.
func (b *Bitmap) Set(x, y int, v bool) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	b.Pix[y*b.Width+x] = v
}

// Count returns the number of set pixels.
func (b *Bitmap) Count() int {
	n := 0
	for _, v := range b.Pix {
		if v {
			n++
		}
	}
	return n
}

// FillPolygon rasterizes a closed polygon into a bitmap of the given
// dimensions. Edges run between consecutive points plus the implied
// closing edge from the last point back to the first.
//
// Interior pixels are selected with the even-odd rule sampled at integer
// scanlines; vertex crossings count once because each edge spans the
// half-open interval [minY, maxY). Boundary pixels are always included:
// every edge is additionally rasterized with Bresenham's line algorithm.
// Self-intersecting polygons therefore fill deterministically under the
// even-odd rule. Fewer than 3 points produce an empty bitmap.
func FillPolygon(points []geometry.Point2D, width, height int) *Bitmap {
	bm := NewBitmap(width, height)
	if len(points) < 3 {
		return bm
	}

	box := geometry.BoundingBox(points)
	yMin := int(math.Floor(box.Y))
	yMax := int(math.Ceil(box.Y + box.Height))
	if yMin < 0 {
		yMin = 0
	}
	if yMax > height-1 {
		yMax = height - 1
	}

	xs := make([]float64, 0, len(points))
	for y := yMin; y <= yMax; y++ {
		fy := float64(y)
		xs = xs[:0]

		for i := range points {
			p1 := points[i]
			p2 := points[(i+1)%len(points)]
			if p1.Y == p2.Y {
				continue
			}
			lo, hi := p1, p2
			if lo.Y > hi.Y {
				lo, hi = hi, lo
			}
			if fy < lo.Y || fy >= hi.Y {
				continue
			}
			xs = append(xs, lo.X+(fy-lo.Y)*(hi.X-lo.X)/(hi.Y-lo.Y))
		}

		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Ceil(xs[i]))
			x1 := int(math.Floor(xs[i+1]))
			if x0 < 0 {
				x0 = 0
			}
			if x1 > width-1 {
				x1 = width - 1
			}
			for x := x0; x <= x1; x++ {
				bm.Pix[y*width+x] = true
			}
		}
	}

	// Include the boundary itself
	for i := range points {
		p1 := points[i]
		p2 := points[(i+1)%len(points)]
		drawLine(bm, p1, p2)
	}

	return bm
}

// drawLine rasterizes the segment p1-p2 into the bitmap using Bresenham's
// algorithm on the rounded endpoints.
func drawLine(bm *Bitmap, p1, p2 geometry.Point2D) {
	x0 := int(math.Round(p1.X))
	y0 := int(math.Round(p1.Y))
	x1 := int(math.Round(p2.X))
	y1 := int(math.Round(p2.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		bm.Set(x0, y0, true)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
