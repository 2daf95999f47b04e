// Package geometry provides dimension parsing, unit conversion and the box
// and cylinder volume formulas used for freight billing.
package geometry

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// CubicInchesPerFoot is 12³.
	CubicInchesPerFoot = 1728.0
	// InchesPerCM converts centimeters to inches.
	InchesPerCM = 1 / 2.54
	// MinBillableFt3 is the smallest volume a single package is billed at.
	MinBillableFt3 = 1.0
)

// Triple is a parsed H x W x D measurement in inches.
type Triple struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
}

// VolumeFt3 returns the billable box volume of the triple.
func (t Triple) VolumeFt3() float64 {
	return BoxVolumeFt3(t.Height, t.Width, t.Depth)
}

// The first number must not continue a longer number, so "1,200" is never
// read as 200. Labels may touch the separator, as in 20Hx30Wx10D.
const (
	edgePat  = `(?:^|[^\d.,])`
	numPat   = `(\d*\.\d+|\d+(?:,\d{3})*(?:\.\d+)?)`
	unitPat  = `\s*("|''|″|”|inches|inch|in\.?|cm)?`
	labelPat = `(?:\s*[hwdl])?`
	sepPat   = `\s*(?:x|×|\*|by)\s*`
)

var triplePattern = regexp.MustCompile(`(?i)` + edgePat +
	numPat + unitPat + labelPat + sepPat +
	numPat + unitPat + labelPat + sepPat +
	numPat + unitPat)

// ParseDimensions extracts the first A x B x C triple from free text.
// Quote marks, ×, "by" and unit suffixes are tolerated; a triple with any
// centimeter unit is converted to inches.
func ParseDimensions(text string) (Triple, bool) {
	m := triplePattern.FindStringSubmatch(text)
	if m == nil {
		return Triple{}, false
	}

	vals := [3]float64{}
	cm := false
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1+i*2], ",", ""), 64)
		if err != nil {
			return Triple{}, false
		}
		vals[i] = v
		if strings.EqualFold(m[2+i*2], "cm") {
			cm = true
		}
	}
	if cm {
		for i := range vals {
			vals[i] = CMToInches(vals[i])
		}
	}
	return Triple{Height: vals[0], Width: vals[1], Depth: vals[2]}, true
}

// ParseBoxes parses a multi-box manifest: every line holding a triple is one
// box. Lines without a triple are ignored.
func ParseBoxes(text string) []Triple {
	var boxes []Triple
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == ';' }) {
		if t, ok := ParseDimensions(line); ok {
			boxes = append(boxes, t)
		}
	}
	return boxes
}

// BoxVolumeFt3 converts three inch measurements to cubic feet, floored at
// MinBillableFt3 and rounded to 2 decimals.
func BoxVolumeFt3(h, w, d float64) float64 {
	v := h * w * d / CubicInchesPerFoot
	if v < MinBillableFt3 {
		v = MinBillableFt3
	}
	return Round2(v)
}

// CylinderVolumeFt3 returns the volume of a cylinder (a rolled rug) in cubic
// feet, rounded to 2 decimals.
func CylinderVolumeFt3(lengthIn, diameterIn float64) float64 {
	r := diameterIn / 2
	return Round2(math.Pi * r * r * lengthIn / CubicInchesPerFoot)
}

// CubicInchesToFeet converts a cubic-inch volume to cubic feet (unrounded).
func CubicInchesToFeet(in3 float64) float64 {
	return in3 / CubicInchesPerFoot
}

// InchesToFeet converts a length in inches to feet (unrounded).
func InchesToFeet(in float64) float64 {
	return in / 12
}

// CMToInches converts centimeters to inches (unrounded).
func CMToInches(cm float64) float64 {
	return cm * InchesPerCM
}

// Round2 rounds half-up to 2 decimal places. The small nudge absorbs binary
// representation error so that e.g. 13.0295 rounds to 13.03.
func Round2(v float64) float64 {
	if v < 0 {
		return -Round2(-v)
	}
	return math.Floor(v*100+0.5+1e-9) / 100
}
