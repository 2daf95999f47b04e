package heuristics

import (
	"regexp"
	"strconv"

	"github.com/sells-group/dimfreight/internal/geometry"
)

var (
	rugRe        = word(`area rugs?|rugs?|runners?|carpets?`)
	rugExcludeRe = word(`table ?runners?|stair runners? rods?|carpet cleaners?`)
	plushRugRe   = word(`thick|plush|shag(?:gy)?`)

	ftSide     = `(\d+(?:\.\d+)?)\s*(?:'|’|ft\.?|feet|foot)?\s*(?:(\d+(?:\.\d+)?)\s*(?:"|”|in\.?))?`
	rugSizeRe  = regexp.MustCompile(`(?i)` + ftSide + `\s*(?:x|×|by)\s*` + ftSide)
	rugRoundRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:'|’|ft\.?|feet|foot)\s*round`)
)

const (
	rugDiameterIn      = 9.5
	rugPlushDiameterIn = 12.0
	rugDefaultRollFt   = 5.0
	rugFloorFt3        = 1.5
	// Sides above this are taken to be inches, not feet.
	rugMaxFeet = 30.0
)

func parseFeetSide(whole, inches string) float64 {
	v, _ := strconv.ParseFloat(whole, 64)
	if inches != "" {
		in, _ := strconv.ParseFloat(inches, 64)
		v += in / 12
	}
	return v
}

// rugRollFeet returns the rolled length in feet: rugs roll along their long
// side, so the tube is as long as the short side.
func rugRollFeet(text string) (float64, bool) {
	if m := rugSizeRe.FindStringSubmatch(text); m != nil {
		a := parseFeetSide(m[1], m[2])
		b := parseFeetSide(m[3], m[4])
		if a > rugMaxFeet && b > rugMaxFeet {
			a, b = geometry.InchesToFeet(a), geometry.InchesToFeet(b)
		}
		if short := min(a, b); short > 0 {
			return short, true
		}
	}
	if m := rugRoundRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return v, true
		}
	}
	return rugDefaultRollFt, false
}

func estimateRug(in Input) *Result {
	if !matches(in.Head, rugRe, rugExcludeRe) {
		return nil
	}

	diameter := rugDiameterIn
	if plushRugRe.MatchString(in.Text) {
		diameter = rugPlushDiameterIn
	}
	rollFt, parsed := rugRollFeet(in.Text)
	cuft := max(geometry.CylinderVolumeFt3(rollFt*12, diameter), rugFloorFt3)

	return &Result{
		Family: "rug",
		Cuft:   cuft,
		Meta: map[string]any{
			"roll_length_ft": rollFt,
			"diameter_in":    diameter,
			"size_parsed":    parsed,
		},
	}
}

var mirrorGlassRe = word(`mirrors?|glass (?:table ?tops?|panels?|shel(?:f|ves)|doors?|sheets?)|tempered glass|framed art|wall art`)

var mirrorRules = []rule{
	{"floor_mirror", word(`floor mirrors?|leaner mirrors?|full[ -]length mirrors?`), 6},
	{"wall_art", word(`framed art|wall art`), 3},
}

const (
	mirrorCratePadIn = 4.0
	mirrorFloorFt3   = 2.0
	mirrorDefaultFt3 = 4.0
)

func estimateMirrorGlass(in Input) *Result {
	if !mirrorGlassRe.MatchString(in.Head) {
		return nil
	}

	subtype, cuft := "mirror_glass", mirrorDefaultFt3
	if r, ok := firstRule(in.Head, mirrorRules); ok {
		subtype, cuft = r.name, r.cuft
	}

	meta := map[string]any{"subtype": subtype, "fragile": true, "method": "constant"}
	if d := in.Facts.AssembledDims; d.Valid() {
		cuft = paddedBoxFt3(d, mirrorCratePadIn, mirrorFloorFt3)
		meta["method"] = "crated_dims"
	}

	return &Result{Family: "mirror_glass", Cuft: cuft, Meta: meta}
}

var lightingRe = word(`chandeliers?|pendant (?:lights?|lamps?)|floor lamps?|table lamps?|desk lamps?|lamps?|sconces?|ceiling lights?|flush mounts?|light fixtures?|lighting`)

var lightingRules = []rule{
	{"chandelier", word(`chandeliers?`), 6},
	{"floor_lamp", word(`floor lamps?`), 3},
	{"table_lamp", word(`table lamps?|desk lamps?`), 2},
	{"pendant", word(`pendant (?:lights?|lamps?)`), 2},
	{"sconce", word(`sconces?`), 1},
	{"ceiling", word(`ceiling lights?|flush mounts?`), 1.5},
}

const (
	lightingDefaultFt3 = 2.0
	chandelierPadIn    = 6.0
)

func estimateLighting(in Input) *Result {
	if !lightingRe.MatchString(in.Head) {
		return nil
	}

	subtype, cuft := "lighting", lightingDefaultFt3
	if r, ok := firstRule(in.Head, lightingRules); ok {
		subtype, cuft = r.name, r.cuft
	}

	meta := map[string]any{"subtype": subtype, "method": "constant"}
	if d := in.Facts.AssembledDims; subtype == "chandelier" && d.Valid() {
		cuft = paddedBoxFt3(d, chandelierPadIn, cuft)
		meta["method"] = "assembled_dims"
	}

	return &Result{Family: "lighting", Cuft: cuft, Meta: meta}
}

var (
	smallDecorRe = word(`décor|decor|vases?|candles?|candle holders?|picture frames?|photo frames?|clocks?|baskets?|sculptures?|figurines?|decorative bowls?|decorative trays?|bowls?|trays?|artificial plants?|faux plants?|wreaths?|bookends?|table ?runners?|ornaments?`)
	wallDecorRe  = word(`wall (?:décor|decor|clocks?|hangings?)`)
)

const (
	smallDecorFt3 = 1.0
	wallDecorFt3  = 1.5
)

func estimateSmallDecor(in Input) *Result {
	if !smallDecorRe.MatchString(in.Head) {
		return nil
	}

	subtype, cuft := "decor", smallDecorFt3
	if wallDecorRe.MatchString(in.Head) {
		subtype, cuft = "wall_decor", wallDecorFt3
	}

	return &Result{
		Family: "small_decor",
		Cuft:   cuft,
		Meta:   map[string]any{"subtype": subtype},
	}
}
