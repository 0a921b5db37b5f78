// Package mask implements the instance-label raster, its mutation
// operations, polygon rasterization, boundary tracing, and the undo history.
//
// A raster assigns every pixel of the active image an instance ID:
// 0 is background, positive IDs identify individual delineated cells.
// The raster is the single source of truth; boundary outlines and display
// colors are derived from it on demand.
package mask

import (
	"fmt"
	"sort"
)

// Raster is a 2D grid of instance IDs in row-major order.
type Raster struct {
	Width  int
	Height int
	Pix    []uint16 // len = Width*Height
}

// NewRaster creates an all-background raster of the given dimensions.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint16, width*height),
	}
}

// RasterFromRows builds a raster from a row-major slice of rows.
// All rows must have equal, nonzero length.
func RasterFromRows(rows [][]uint16) (*Raster, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("mask: empty raster data")
	}
	width := len(rows[0])
	r := NewRaster(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("mask: ragged raster row %d: %d != %d", y, len(row), width)
		}
		copy(r.Pix[y*width:(y+1)*width], row)
	}
	return r, nil
}

// Rows returns the raster as a slice of rows, for serialization.
func (r *Raster) Rows() [][]uint16 {
	rows := make([][]uint16, r.Height)
	for y := 0; y < r.Height; y++ {
		row := make([]uint16, r.Width)
		copy(row, r.Pix[y*r.Width:(y+1)*r.Width])
		rows[y] = row
	}
	return rows
}

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	pix := make([]uint16, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// At returns the instance ID at (x, y), or 0 for out-of-bounds coordinates.
func (r *Raster) At(x, y int) uint16 {
	if x < 0 || x >= r.Width || y < 0 || y >= r.Height {
		return 0
	}
	return r.Pix[y*r.Width+x]
}

// Set writes an instance ID at (x, y). Out-of-bounds writes are ignored.
func (r *Raster) Set(x, y int, id uint16) {
	if x < 0 || x >= r.Width || y < 0 || y >= r.Height {
		return
	}
	r.Pix[y*r.Width+x] = id
}

// InstanceIDs returns the distinct nonzero IDs present, in ascending order.
func (r *Raster) InstanceIDs() []uint16 {
	present := make(map[uint16]struct{})
	for _, id := range r.Pix {
		if id != 0 {
			present[id] = struct{}{}
		}
	}
	ids := make([]uint16, 0, len(present))
	for id := range present {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// InstanceCount returns the number of distinct nonzero IDs present.
func (r *Raster) InstanceCount() int {
	return len(r.InstanceIDs())
}

// MaxID returns the largest instance ID present, or 0 if none.
func (r *Raster) MaxID() uint16 {
	var maxID uint16
	for _, id := range r.Pix {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

// Equal reports whether two rasters have identical dimensions and contents.
func (r *Raster) Equal(other *Raster) bool {
	if other == nil || r.Width != other.Width || r.Height != other.Height {
		return false
	}
	for i, id := range r.Pix {
		if other.Pix[i] != id {
			return false
		}
	}
	return true
}
