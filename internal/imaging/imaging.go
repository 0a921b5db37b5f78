// Package imaging loads microscopy source images and prepares them for
// display. Decoding goes through the standard image registry with TIFF
// support added, since most microscopes emit 16-bit TIFF stacks.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/tiff"
	"gonum.org/v1/gonum/stat"
)

// SupportedFormats lists the image extensions the annotator opens, in the
// preference order used when resolving a sibling image for a container.
var SupportedFormats = []string{".tif", ".tiff", ".png", ".jpg", ".jpeg"}

// Frame is a decoded source image together with its path.
type Frame struct {
	Path  string
	Image image.Image
}

// Load decodes the image at path.
func Load(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imaging: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode %s: %w", path, err)
	}

	return &Frame{Path: path, Image: img}, nil
}

// Width returns the image width in pixels.
func (fr *Frame) Width() int {
	return fr.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (fr *Frame) Height() int {
	return fr.Image.Bounds().Dy()
}

// Channels returns 1 for grayscale frames and 3 otherwise.
func (fr *Frame) Channels() int {
	switch fr.Image.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	default:
		return 3
	}
}

// Channel extracts a single channel (0=R, 1=G, 2=B) as a grayscale image.
// For grayscale frames every channel index returns the luma.
func (fr *Frame) Channel(i int) *image.Gray {
	b := fr.Image.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := fr.Image.At(x, y).RGBA()
			var v uint32
			switch i {
			case 0:
				v = r
			case 1:
				v = g
			default:
				v = bl
			}
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: uint8(v >> 8)})
		}
	}

	return out
}

// IsSupportedFormat reports whether the path has a recognized image
// extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedFormats {
		if ext == s {
			return true
		}
	}
	return false
}

// ListImages returns the supported image files directly under dir,
// sorted by name. Hidden files are skipped.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("imaging: read dir %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if IsSupportedFormat(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// FindSiblingImage locates the source image for a container stem in dir.
// Extensions are tried in SupportedFormats order with case-insensitive
// filename matching, so the result is deterministic when multiple
// candidates exist. Returns "" when no image matches.
func FindSiblingImage(dir, stem string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	for _, ext := range SupportedFormats {
		want := stem + ext
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.EqualFold(e.Name(), want) {
				return filepath.Join(dir, e.Name())
			}
		}
	}

	return ""
}

// Dimensions reads just the header of the image at path.
func Dimensions(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("imaging: open %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("imaging: decode config %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// DisplayImage converts a frame to 8-bit RGBA with a 1st/99th percentile
// linear contrast stretch, so dim 16-bit microscopy data is visible
// without touching the underlying pixel values.
func DisplayImage(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	luma := make([]float64, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			luma = append(luma, float64(r+g+bl)/3)
		}
	}
	sort.Float64s(luma)

	lo := stat.Quantile(0.01, stat.Empirical, luma, nil)
	hi := stat.Quantile(0.99, stat.Empirical, luma, nil)
	if hi <= lo {
		hi = lo + 1
	}
	scale := 255.0 / (hi - lo)

	stretch := func(v uint32) uint8 {
		s := (float64(v) - lo) * scale
		if s < 0 {
			s = 0
		}
		if s > 255 {
			s = 255
		}
		return uint8(s)
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{
				R: stretch(r),
				G: stretch(g),
				B: stretch(bl),
				A: 255,
			})
		}
	}

	return out
}
