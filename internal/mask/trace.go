package mask

import "cell-annotator/pkg/geometry"

// Contour is a closed loop of boundary pixel coordinates.
type Contour []geometry.PointInt

// mooreOffsets enumerates the 8-neighborhood clockwise in image
// coordinates (y axis pointing down), starting from the west neighbor.
var mooreOffsets = [8]geometry.PointInt{
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
}

// TraceBoundaries extracts the external boundary of every 8-connected
// component in the bitmap, one closed loop per component. Loops are
// traced clockwise (image coordinates) with Moore neighbor tracing and
// Jacob's stopping criterion; holes are not reported separately.
// A single-pixel component yields a one-point loop. Components are
// returned in row-major order of their topmost-leftmost pixel.
func TraceBoundaries(bm *Bitmap) []Contour {
	seen := make([]bool, len(bm.Pix))
	var contours []Contour

	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			idx := y*bm.Width + x
			if !bm.Pix[idx] || seen[idx] {
				continue
			}
			start := geometry.PointInt{X: x, Y: y}
			contours = append(contours, traceContour(bm, start))
			markComponent(bm, seen, start)
		}
	}

	return contours
}

// traceContour walks the external boundary of the component containing
// start, which must be its topmost-leftmost pixel (so the west neighbor
// is guaranteed empty). The walk ends when it re-enters start about to
// repeat its opening move; on thin components the boundary legitimately
// passes through start with a different continuation, so comparing the
// continuation (not the arrival direction) is what closes the loop.
func traceContour(bm *Bitmap, start geometry.PointInt) Contour {
	contour := Contour{start}
	initialBacktrack := geometry.PointInt{X: start.X - 1, Y: start.Y}

	first, firstBacktrack, ok := nextClockwise(bm, start, initialBacktrack)
	if !ok {
		// Isolated pixel
		return contour
	}

	cur, backtrack := first, firstBacktrack
	limit := 4 * len(bm.Pix) // safety bound; a boundary never exceeds this

	for steps := 0; steps < limit; steps++ {
		next, nextBacktrack, ok := nextClockwise(bm, cur, backtrack)
		if !ok {
			return contour
		}
		if cur == start && next == first {
			return contour
		}
		contour = append(contour, cur)
		cur, backtrack = next, nextBacktrack
	}

	return contour
}

// nextClockwise scans the 8-neighborhood of cur clockwise, starting just
// past the backtrack pixel, and returns the first set neighbor together
// with the empty pixel examined immediately before it (the new backtrack).
func nextClockwise(bm *Bitmap, cur, backtrack geometry.PointInt) (next, nextBacktrack geometry.PointInt, ok bool) {
	startIdx := 0
	for i, off := range mooreOffsets {
		if cur.X+off.X == backtrack.X && cur.Y+off.Y == backtrack.Y {
			startIdx = i
			break
		}
	}

	for i := 1; i <= 8; i++ {
		idx := (startIdx + i) % 8
		off := mooreOffsets[idx]
		n := geometry.PointInt{X: cur.X + off.X, Y: cur.Y + off.Y}
		if bm.At(n.X, n.Y) {
			prevOff := mooreOffsets[(startIdx+i-1)%8]
			prev := geometry.PointInt{X: cur.X + prevOff.X, Y: cur.Y + prevOff.Y}
			return n, prev, true
		}
	}

	return geometry.PointInt{}, geometry.PointInt{}, false
}

// markComponent flood-fills the 8-connected component containing start
// into seen, so each component is traced exactly once.
func markComponent(bm *Bitmap, seen []bool, start geometry.PointInt) {
	stack := []geometry.PointInt{start}
	seen[start.Y*bm.Width+start.X] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, off := range mooreOffsets {
			nx, ny := p.X+off.X, p.Y+off.Y
			if nx < 0 || nx >= bm.Width || ny < 0 || ny >= bm.Height {
				continue
			}
			idx := ny*bm.Width + nx
			if bm.Pix[idx] && !seen[idx] {
				seen[idx] = true
				stack = append(stack, geometry.PointInt{X: nx, Y: ny})
			}
		}
	}
}

// Outlines derives the per-pixel boundary raster: for each instance ID in
// ascending order, its boundary loops are stamped with that ID. Pixels not
// on any boundary stay 0.
func Outlines(r *Raster) *Raster {
	out := NewRaster(r.Width, r.Height)

	for _, id := range r.InstanceIDs() {
		bm := NewBitmap(r.Width, r.Height)
		for i, v := range r.Pix {
			if v == id {
				bm.Pix[i] = true
			}
		}
		for _, contour := range TraceBoundaries(bm) {
			for _, p := range contour {
				out.Set(p.X, p.Y, id)
			}
		}
	}

	return out
}
