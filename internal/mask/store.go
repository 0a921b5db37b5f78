package mask

import (
	"errors"

	"cell-annotator/pkg/geometry"
)

var (
	// ErrEmptyPaint is returned when a paint operation would not label any
	// pixel: the polygon had fewer than 3 points, or every filled pixel is
	// already owned by an existing instance.
	ErrEmptyPaint = errors.New("mask: polygon leaves no unlabeled pixels")

	// ErrNotFound is returned when an erase targets a background or
	// out-of-bounds pixel.
	ErrNotFound = errors.New("mask: no instance at pixel")
)

// Store owns the instance-label raster for the currently open image and
// applies all mutations to it. New paint never overwrites pixels that
// already belong to an instance: overlapping strokes land behind existing
// cells, so earlier annotation work is never silently destroyed.
//
// The store does not snapshot or persist; callers push an undo snapshot
// before mutating and save the container afterwards.
type Store struct {
	raster *Raster
	nextID uint16
}

// NewStore creates a store with an all-background raster of the given size.
func NewStore(width, height int) *Store {
	return &Store{raster: NewRaster(width, height), nextID: 1}
}

// NewStoreFromRaster creates a store adopting an existing raster.
// The next instance ID is derived from the raster contents, never from
// any stored counter, so painted instances cannot collide with loaded IDs.
func NewStoreFromRaster(r *Raster) *Store {
	return &Store{raster: r, nextID: r.MaxID() + 1}
}

// Raster returns the live raster. Callers must not mutate it; use
// Snapshot for a copy.
func (s *Store) Raster() *Raster {
	return s.raster
}

// Snapshot returns a deep copy of the current raster.
func (s *Store) Snapshot() *Raster {
	return s.raster.Clone()
}

// Width returns the raster width in pixels.
func (s *Store) Width() int { return s.raster.Width }

// Height returns the raster height in pixels.
func (s *Store) Height() int { return s.raster.Height }

// NextID returns the ID the next successful paint will assign.
func (s *Store) NextID() uint16 { return s.nextID }

// Paint rasterizes the polygon and labels every filled pixel that is not
// already owned by an existing instance with a fresh ID. If no pixel
// survives the overlap subtraction (or the polygon has fewer than 3
// points), it returns ErrEmptyPaint without consuming an ID or touching
// the raster.
func (s *Store) Paint(polygon []geometry.Point2D) (uint16, error) {
	if len(polygon) < 3 {
		return 0, ErrEmptyPaint
	}

	fill := FillPolygon(polygon, s.raster.Width, s.raster.Height)

	// New instances go behind existing ones
	for i := range fill.Pix {
		if fill.Pix[i] && s.raster.Pix[i] != 0 {
			fill.Pix[i] = false
		}
	}

	if fill.Count() == 0 {
		return 0, ErrEmptyPaint
	}

	id := s.nextID
	for i := range fill.Pix {
		if fill.Pix[i] {
			s.raster.Pix[i] = id
		}
	}
	s.nextID++

	return id, nil
}

// EraseAt removes the instance under the given pixel and returns its ID.
// Background or out-of-bounds pixels return ErrNotFound with no mutation.
func (s *Store) EraseAt(x, y int) (uint16, error) {
	id := s.raster.At(x, y)
	if id == 0 {
		return 0, ErrNotFound
	}

	for i, v := range s.raster.Pix {
		if v == id {
			s.raster.Pix[i] = 0
		}
	}

	return id, nil
}

// Replace substitutes the raster wholesale (undo restore, image load).
// The next instance ID is recomputed from the new contents.
func (s *Store) Replace(r *Raster) {
	s.raster = r
	s.nextID = r.MaxID() + 1
}

// InstanceIDs returns the distinct nonzero IDs present, ascending.
func (s *Store) InstanceIDs() []uint16 {
	return s.raster.InstanceIDs()
}

// InstanceCount returns the number of distinct instances present.
func (s *Store) InstanceCount() int {
	return s.raster.InstanceCount()
}
