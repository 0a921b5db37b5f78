// Package container reads and writes the on-disk segmentation container
// that accompanies each annotated image. The container is a JSON document
// sitting next to the image as {stem}_seg.json and always carries the
// complete key set expected by downstream segmentation tooling, even for
// keys this application never sets.
package container

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cell-annotator/internal/mask"
	"cell-annotator/pkg/colorutil"
)

// Suffix is appended to the image stem to form the container filename.
const Suffix = "_seg.json"

var (
	// ErrDimensionMismatch is returned when a loaded mask raster does not
	// match the dimensions of the image it annotates.
	ErrDimensionMismatch = errors.New("container: mask dimensions do not match image")

	// ErrCorrupt is returned when a container file is not valid JSON or
	// carries no usable mask data.
	ErrCorrupt = errors.New("container: unreadable segmentation data")
)

// NormalizeParams mirrors the normalization settings block downstream
// tooling expects. All values are fixed defaults; the annotator never
// normalizes on save.
type NormalizeParams struct {
	LowHigh           interface{} `json:"lowhigh"`
	Percentile        []float64   `json:"percentile"`
	Normalize         bool        `json:"normalize"`
	Norm3D            bool        `json:"norm3D"`
	SharpenRadius     float64     `json:"sharpen_radius"`
	SmoothRadius      float64     `json:"smooth_radius"`
	TileNormBlocksize float64     `json:"tile_norm_blocksize"`
	TileNormSmooth3D  float64     `json:"tile_norm_smooth3D"`
	Invert            bool        `json:"invert"`
}

// DefaultNormalizeParams returns the fixed normalization block.
func DefaultNormalizeParams() NormalizeParams {
	return NormalizeParams{
		LowHigh:    nil,
		Percentile: []float64{1.0, 99.0},
		Normalize:  true,
		Norm3D:     true,
	}
}

// Complete is the full container document. Key names and types follow the
// external format exactly; renaming a field breaks interchange.
type Complete struct {
	Outlines          [][]uint16      `json:"outlines"`
	Colors            [][3]int64      `json:"colors"`
	Masks             [][]uint16      `json:"masks"`
	Filename          string          `json:"filename"`
	Flows             []interface{}   `json:"flows"`
	IsManual          []bool          `json:"ismanual"`
	ManualChanges     []interface{}   `json:"manual_changes"`
	ModelPath         int             `json:"model_path"`
	FlowThreshold     float64         `json:"flow_threshold"`
	CellProbThreshold float64         `json:"cellprob_threshold"`
	NormalizeParams   NormalizeParams `json:"normalize_params"`
	Restore           interface{}     `json:"restore"`
	Ratio             float64         `json:"ratio"`
	Diameter          interface{}     `json:"diameter"`
}

// Shape classifies the on-disk layout of an existing container file.
type Shape int

const (
	// ShapeComplete carries the full key set.
	ShapeComplete Shape = iota
	// ShapePartial has a masks key but is missing outlines or colors.
	ShapePartial
	// ShapeSimple is a bare 2D JSON array of instance IDs.
	ShapeSimple
	// ShapeUnknown is anything else.
	ShapeUnknown
)

func (s Shape) String() string {
	switch s {
	case ShapeComplete:
		return "complete"
	case ShapePartial:
		return "partial"
	case ShapeSimple:
		return "simple"
	default:
		return "unknown"
	}
}

// SegPath returns the container path for the given image path.
func SegPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + Suffix
}

// ImageStem returns the image filename stem for a container path, or ""
// if the path is not a container path.
func ImageStem(segPath string) string {
	base := filepath.Base(segPath)
	if !strings.HasSuffix(base, Suffix) {
		return ""
	}
	return strings.TrimSuffix(base, Suffix)
}

// IsContainerPath reports whether the path names a container file.
// macOS resource-fork artifacts ("._" prefix) are excluded.
func IsContainerPath(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "._") {
		return false
	}
	return strings.HasSuffix(base, Suffix)
}

// Build assembles a complete container document from a raster. Outlines
// are traced from the raster and colors assigned per instance ID, both in
// ascending ID order.
func Build(r *mask.Raster, imagePath string) *Complete {
	colors := make([][3]int64, 0, r.InstanceCount())
	for _, id := range r.InstanceIDs() {
		cr, cg, cb := colorutil.InstanceColor(id)
		colors = append(colors, [3]int64{int64(cr), int64(cg), int64(cb)})
	}

	return &Complete{
		Outlines:        mask.Outlines(r).Rows(),
		Colors:          colors,
		Masks:           r.Rows(),
		Filename:        filepath.Base(imagePath),
		Flows:           []interface{}{},
		IsManual:        []bool{true},
		ManualChanges:   []interface{}{},
		ModelPath:       0,
		FlowThreshold:   0.4,
		NormalizeParams: DefaultNormalizeParams(),
		Ratio:           1.0,
	}
}

// Write serializes a complete container document to path.
func Write(path string, c *Complete) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("container: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("container: write %s: %w", path, err)
	}
	return nil
}

// Save persists the raster as a complete container next to the image.
// A raster with zero instances removes any existing container instead,
// so stale annotation files never linger beside cleared images.
func Save(r *mask.Raster, imagePath string) error {
	path := SegPath(imagePath)

	if r.InstanceCount() == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("container: remove %s: %w", path, err)
		}
		return nil
	}

	return Write(path, Build(r, imagePath))
}

// DetectShape classifies raw container bytes and extracts the mask rows
// when the shape carries them. ShapeUnknown comes back with ErrCorrupt
// for undecodable data and with a nil error for well-formed JSON that
// simply is not a container.
func DetectShape(data []byte) (Shape, [][]uint16, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ShapeUnknown, nil, ErrCorrupt
	}

	if trimmed[0] == '[' {
		var rows [][]uint16
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return ShapeUnknown, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return ShapeSimple, rows, nil
	}

	var probe struct {
		Masks    json.RawMessage `json:"masks"`
		Outlines json.RawMessage `json:"outlines"`
		Colors   json.RawMessage `json:"colors"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return ShapeUnknown, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if probe.Masks == nil {
		return ShapeUnknown, nil, nil
	}

	var rows [][]uint16
	if err := json.Unmarshal(probe.Masks, &rows); err != nil {
		return ShapeUnknown, nil, fmt.Errorf("%w: bad masks key: %v", ErrCorrupt, err)
	}

	if probe.Outlines != nil && probe.Colors != nil {
		return ShapeComplete, rows, nil
	}
	return ShapePartial, rows, nil
}

// Load reads a container file and returns its mask raster, validated
// against the expected image dimensions. Any of the three layouts loads;
// the upgrade to the complete shape happens on the next save.
func Load(path string, width, height int) (*mask.Raster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	shape, rows, err := DetectShape(data)
	if err != nil {
		return nil, err
	}
	if shape == ShapeUnknown {
		return nil, fmt.Errorf("%w: no masks in %s", ErrCorrupt, path)
	}

	r, err := mask.RasterFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if r.Width != width || r.Height != height {
		return nil, fmt.Errorf("%w: mask %dx%d, image %dx%d",
			ErrDimensionMismatch, r.Width, r.Height, width, height)
	}

	return r, nil
}
