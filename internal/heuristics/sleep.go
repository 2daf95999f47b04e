package heuristics

import (
	"regexp"
	"strconv"

	"github.com/sells-group/dimfreight/internal/geometry"
)

// Mattress rules: compressed roll-pack cartons keyed by construction and size.
var mattressBase = map[string]map[string]float64{
	"foam":   {"crib": 2.0, "twin": 3.5, "full": 4.5, "queen": 5.0, "king": 6.0, "cal_king": 6.0},
	"hybrid": {"crib": 2.5, "twin": 5.0, "full": 6.5, "queen": 7.5, "king": 9.0, "cal_king": 9.0},
}

const (
	mattressBaseThicknessIn = 12.0
	mattressPerInchFt3      = 0.2
	mattressMaxAdjustFt3    = 1.5
)

var (
	mattressRe          = word(`mattress(?:es)?`)
	mattressAccessoryRe = word(`mattress (?:pads?|protectors?|toppers?|covers?|encasements?)`)
	hybridRe            = word(`hybrid|innerspring|coils?|pocket(?:ed)? springs?`)
	thicknessRe         = regexp.MustCompile(`(?i)(\d{1,2}(?:\.\d+)?)\s*(?:"|″|”|''|-?\s*inch(?:es)?\b|-?in\b)`)
)

// mattressThickness returns the first plausible thickness in inches, or 12.
func mattressThickness(text string) float64 {
	for _, m := range thicknessRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil && v >= 4 && v <= 20 {
			return v
		}
	}
	return mattressBaseThicknessIn
}

func estimateMattress(in Input) *Result {
	if !matches(in.Head, mattressRe, mattressAccessoryRe) {
		return nil
	}

	kind := "foam"
	if hybridRe.MatchString(in.Text) {
		kind = "hybrid"
	}
	size := bedSize(in.Text, "queen")
	thickness := mattressThickness(in.Text)

	base := mattressBase[kind][size]
	adjust := 0.0
	if thickness > mattressBaseThicknessIn {
		adjust = min((thickness-mattressBaseThicknessIn)*mattressPerInchFt3, mattressMaxAdjustFt3)
	}

	return &Result{
		Family: "mattress",
		Cuft:   geometry.Round2(base + adjust),
		Meta: map[string]any{
			"type":         kind,
			"size":         size,
			"thickness_in": thickness,
			"base_cuft":    base,
			"adjust_cuft":  geometry.Round2(adjust),
		},
	}
}

var (
	beddingRe = word(`duvets?|comforters?|quilts?|coverlets?|bedspreads?|sheet sets?|sheets|pillowcases?|pillow ?shams?|pillows?|blankets?|throws?|bed skirts?|mattress (?:pads?|protectors?|toppers?|covers?|encasements?)`)
	topperRe  = word(`toppers?`)
	pillowRe  = word(`pillows?`)
	coverRe   = word(`duvets?|comforters?|quilts?|coverlets?|bedspreads?`)
	throwRe   = word(`blankets?|throws?`)

	// "sofa with 2 pillows" or "pillow top" describe other furniture.
	beddingExcludeRe = regexp.MustCompile(`(?i)\bwith\b[^|]*\bpillows?\b|\bpillow[ -]?top\b`)
)

var (
	topperBySize = map[string]float64{"crib": 1.0, "twin": 2.0, "full": 2.5, "queen": 3.0, "king": 3.5, "cal_king": 3.5}
	coverBySize  = map[string]float64{"crib": 1.0, "twin": 1.5, "full": 2.0, "queen": 2.0, "king": 2.5, "cal_king": 2.5}
)

func estimateBedding(in Input) *Result {
	if !matches(in.Head, beddingRe, beddingExcludeRe) {
		return nil
	}

	size := bedSize(in.Text, "queen")
	count := itemCount(in.Text)
	meta := map[string]any{"size": size, "count": count}

	var item string
	var cuft float64
	switch {
	case topperRe.MatchString(in.Head):
		item, cuft = "topper", topperBySize[size]
	case pillowRe.MatchString(in.Head):
		item, cuft = "pillow", 1.0*float64(count)
	case coverRe.MatchString(in.Head):
		item, cuft = "cover", coverBySize[size]
	case throwRe.MatchString(in.Head):
		item, cuft = "throw", 1.0
	default:
		item, cuft = "linens", 0.5
	}
	meta["item"] = item

	return &Result{Family: "bedding", Cuft: geometry.Round2(cuft), Meta: meta}
}

var (
	bedRe        = word(`bed ?frames?|platform beds?|panel beds?|canopy beds?|storage beds?|bunk beds?|loft beds?|sleigh beds?|upholstered beds?|day ?beds?|trundle beds?|headboards?|beds?`)
	bedExcludeRe = word(`sofa[ -]?beds?|sleepers?|pet beds?|dog beds?|cat beds?|bed sheets?|bed skirts?|bed ?bugs?|flower beds?|raised (?:garden )?beds?|truck beds?`)
	headboardRe  = word(`headboards?`)
	wholeBedRe   = word(`bed ?frames?|beds?`)
	dayBedRe     = word(`day ?beds?`)
)

var bedBySize = map[string]float64{"crib": 4, "twin": 6, "full": 8, "queen": 9, "king": 11, "cal_king": 11}

var bedModifiers = []struct {
	name string
	re   *regexp.Regexp
	mult float64
}{
	{"bunk_loft", word(`bunk|loft`), 1.6},
	{"storage", word(`storage|drawers?`), 1.35},
	{"upholstered", word(`upholstered|sleigh|canopy`), 1.2},
}

func estimateFlatpackBed(in Input) *Result {
	if !matches(in.Head, bedRe, bedExcludeRe) {
		return nil
	}

	if headboardRe.MatchString(in.Head) && !wholeBedRe.MatchString(headboardRe.ReplaceAllString(in.Head, "")) {
		return &Result{
			Family: "flatpack_bed",
			Cuft:   3.5,
			Meta:   map[string]any{"subtype": "headboard"},
		}
	}

	def := "queen"
	if dayBedRe.MatchString(in.Head) {
		def = "twin"
	}
	size := bedSize(in.Text, def)
	base := bedBySize[size]

	mult := 1.0
	modifier := "none"
	for _, m := range bedModifiers {
		if m.re.MatchString(in.Head) {
			mult, modifier = m.mult, m.name
			break
		}
	}

	return &Result{
		Family: "flatpack_bed",
		Cuft:   geometry.Round2(base * mult),
		Meta: map[string]any{
			"subtype":   "bed",
			"size":      size,
			"base_cuft": base,
			"modifier":  modifier,
		},
	}
}
