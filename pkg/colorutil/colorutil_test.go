package colorutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceColor_Deterministic(t *testing.T) {
	r1, g1, b1 := InstanceColor(7)
	r2, g2, b2 := InstanceColor(7)

	assert.Equal(t, r1, r2)
	assert.Equal(t, g1, g2)
	assert.Equal(t, b1, b2)
}

func TestInstanceColor_AdjacentIDsDiffer(t *testing.T) {
	r1, g1, b1 := InstanceColor(1)
	r2, g2, b2 := InstanceColor(2)

	assert.False(t, r1 == r2 && g1 == g2 && b1 == b2,
		"adjacent IDs should map to distinct colors")
}

func TestHSVToRGB_PrimaryHues(t *testing.T) {
	// Hue 0 is pure red at full saturation and value
	r, g, b := HSVToRGB(0, 255, 255)
	assert.InDelta(t, 255, r, 0.5)
	assert.InDelta(t, 0, g, 0.5)
	assert.InDelta(t, 0, b, 0.5)

	// Hue 60 (OpenCV scale) is pure green
	r, g, b = HSVToRGB(60, 255, 255)
	assert.InDelta(t, 0, r, 0.5)
	assert.InDelta(t, 255, g, 0.5)
	assert.InDelta(t, 0, b, 0.5)

	// Hue 120 is pure blue
	r, g, b = HSVToRGB(120, 255, 255)
	assert.InDelta(t, 0, r, 0.5)
	assert.InDelta(t, 0, g, 0.5)
	assert.InDelta(t, 255, b, 0.5)
}

func TestRGBToHSV_RoundTrip(t *testing.T) {
	h, s, v := RGBToHSV(255, 0, 0)
	assert.InDelta(t, 0, h, 0.5)
	assert.InDelta(t, 255, s, 0.5)
	assert.InDelta(t, 255, v, 0.5)
}
