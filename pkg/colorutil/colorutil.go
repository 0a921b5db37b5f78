// Package colorutil provides shared color utilities for the cell annotator.
package colorutil

import "math"

// hueStep spaces instance hues around the wheel so adjacent IDs stay
// visually distinct. The value is baked into every previously saved
// container's color legend and must not change.
const hueStep = 137

// InstanceColor returns the display and export color for an instance ID.
// It is a pure function of the ID: the same ID always maps to the same
// fully saturated, full-value hue, so the persisted color legend matches
// what the annotator saw on screen.
func InstanceColor(id uint16) (r, g, b uint8) {
	hue := float64((int(id) * hueStep) % 180)
	fr, fg, fb := HSVToRGB(hue, 255, 255)
	return uint8(math.Round(fr)), uint8(math.Round(fg)), uint8(math.Round(fb))
}

// HSVToRGB converts HSV (OpenCV convention: H 0-180, S 0-255, V 0-255)
// to RGB (0-255).
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	hDeg := h * 2 // expand OpenCV's 0-180 range to 0-360 degrees
	c := (v / 255.0) * (s / 255.0)
	x := c * (1 - math.Abs(math.Mod(hDeg/60.0, 2)-1))
	m := v/255.0 - c

	var rp, gp, bp float64
	switch {
	case hDeg < 60:
		rp, gp, bp = c, x, 0
	case hDeg < 120:
		rp, gp, bp = x, c, 0
	case hDeg < 180:
		rp, gp, bp = 0, c, x
	case hDeg < 240:
		rp, gp, bp = 0, x, c
	case hDeg < 300:
		rp, gp, bp = x, 0, c
	default:
		rp, gp, bp = c, 0, x
	}

	return (rp + m) * 255.0, (gp + m) * 255.0, (bp + m) * 255.0
}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0 // V in 0-255

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0 // S in 0-255
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	h = h / 2 // Convert to OpenCV's 0-180 range

	return h, s, v
}
