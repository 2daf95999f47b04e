package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want Triple
		ok   bool
	}{
		{"plain", "20 x 43 x 45", Triple{20, 43, 45}, true},
		{"no spaces", "20x30x15", Triple{20, 30, 15}, true},
		{"multiplication sign", "12 × 24 × 36", Triple{12, 24, 36}, true},
		{"quote marks and labels", `Dimensions: 20"H x 30"W x 15"D`, Triple{20, 30, 15}, true},
		{"unit suffix", "10.5 in x 8 in x 2.25 in", Triple{10.5, 8, 2.25}, true},
		{"by separator", "40 by 20 by 10 inches", Triple{40, 20, 10}, true},
		{"first triple wins", "box 1: 10x10x10, box 2: 20x20x20", Triple{10, 10, 10}, true},
		{"centimeters", "254 x 127 x 25.4 cm", Triple{100, 50, 10}, true},
		{"leading decimal point", ".5 x 10 x 10", Triple{0.5, 10, 10}, true},
		{"digit grouping", "1,200 x 10 x 10", Triple{1200, 10, 10}, true},
		{"grouping in later sides", "10 x 1,200.5 x 4", Triple{10, 1200.5, 4}, true},
		{"malformed grouping", "1,20 x 10 x 10", Triple{}, false},
		{"compact labels", "20Hx30Wx10D", Triple{20, 30, 10}, true},
		{"compact labels with quotes", `20"Hx30"Wx10"D`, Triple{20, 30, 10}, true},
		{"only a pair", "8 x 10 rug", Triple{}, false},
		{"feet marks are not inches", "8' x 10' x 1'", Triple{}, false},
		{"empty", "", Triple{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseDimensions(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want.Height, got.Height, 0.001)
				assert.InDelta(t, tt.want.Width, got.Width, 0.001)
				assert.InDelta(t, tt.want.Depth, got.Depth, 0.001)
			}
		})
	}
}

func TestParseBoxes(t *testing.T) {
	t.Parallel()

	boxes := ParseBoxes("20 x 43 x 45\nnot a box\n20 x 45 x 65")
	require.Len(t, boxes, 2)
	assert.Equal(t, Triple{20, 43, 45}, boxes[0])
	assert.Equal(t, Triple{20, 45, 65}, boxes[1])

	assert.Empty(t, ParseBoxes("no dimensions here"))
	assert.Len(t, ParseBoxes("10x10x10; 12x12x12"), 2)
}

func TestBoxVolumeFt3(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4.63, BoxVolumeFt3(20, 20, 20))
	assert.Equal(t, 22.4, BoxVolumeFt3(20, 43, 45))
	assert.Equal(t, 33.85, BoxVolumeFt3(20, 45, 65))
	// Tiny packages are billed at the 1 ft³ minimum.
	assert.Equal(t, 1.0, BoxVolumeFt3(5, 5, 5))
	assert.Equal(t, 1.0, BoxVolumeFt3(12, 12, 12))
}

func TestCylinderVolumeFt3(t *testing.T) {
	t.Parallel()

	// 8 ft roll, 9.5" diameter: pi * 4.75^2 * 96 / 1728
	assert.Equal(t, 3.94, CylinderVolumeFt3(96, 9.5))
	assert.Equal(t, 0.0, CylinderVolumeFt3(0, 9.5))
}

func TestRound2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{64.6875, 64.69},
		{56.25 * 1.15, 64.69},
		{11.33 * 1.15, 13.03},
		{56 * 1.15, 64.4},
		{4.63 * 1.15, 5.32},
		{1.005, 1.01},
		{2.344, 2.34},
		{-1.005, -1.01},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestConversions(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, CubicInchesToFeet(1728), 1e-9)
	assert.InDelta(t, 2.0, InchesToFeet(24), 1e-9)
	assert.InDelta(t, 1.0, CMToInches(2.54), 1e-9)
}
