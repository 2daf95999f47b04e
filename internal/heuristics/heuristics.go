// Package heuristics holds the per-category-family volume estimators. Each
// estimator is a pure function of product text; the registry order encodes
// specificity and is evaluated top to bottom.
package heuristics

import (
	"regexp"
	"strconv"

	"github.com/sells-group/dimfreight/internal/geometry"
	"github.com/sells-group/dimfreight/internal/model"
)

// Result is a category estimator's volume estimate.
type Result struct {
	Family string         `json:"family"`
	Cuft   float64        `json:"cuft"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Input is what an estimator sees. Head is the normalized title, category
// and breadcrumbs and decides whether the family applies; Text is the full
// normalized text and supplies attributes such as size or thickness.
type Input struct {
	Facts model.ProductFacts
	Head  string
	Text  string
}

// Estimator pairs a family name with its estimate function. Estimate returns
// nil when the family does not apply.
type Estimator struct {
	Name     string
	Estimate func(in Input) *Result
}

// registry is the fixed priority order. More specific families come first.
var registry = []Estimator{
	{Name: "mattress", Estimate: estimateMattress},
	{Name: "bedding", Estimate: estimateBedding},
	{Name: "flatpack_bed", Estimate: estimateFlatpackBed},
	{Name: "flatpack_table", Estimate: estimateFlatpackTable},
	{Name: "rug", Estimate: estimateRug},
	{Name: "mirror_glass", Estimate: estimateMirrorGlass},
	{Name: "sofa", Estimate: estimateSofa},
	{Name: "casegood", Estimate: estimateCasegood},
	{Name: "lighting", Estimate: estimateLighting},
	{Name: "seating", Estimate: estimateSeating},
	{Name: "outdoor", Estimate: estimateOutdoor},
	{Name: "appliance", Estimate: estimateAppliance},
	{Name: "electronics", Estimate: estimateElectronics},
	{Name: "gym", Estimate: estimateGym},
	{Name: "baby", Estimate: estimateBaby},
	{Name: "small_decor", Estimate: estimateSmallDecor},
}

// Estimators returns a copy of the ordered estimator list.
func Estimators() []Estimator {
	out := make([]Estimator, len(registry))
	copy(out, registry)
	return out
}

// Names returns the estimator names in priority order.
func Names() []string {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.Name
	}
	return names
}

// NewInput builds an estimator input from product facts.
func NewInput(f model.ProductFacts) Input {
	return Input{Facts: f, Head: f.HeadText(), Text: f.Text()}
}

// Match runs every estimator in priority order and returns the first
// non-nil result.
func Match(f model.ProductFacts) (Result, bool) {
	in := NewInput(f)
	for _, e := range registry {
		if r := e.Estimate(in); r != nil {
			if r.Family == "" {
				r.Family = e.Name
			}
			return *r, true
		}
	}
	return Result{}, false
}

// word compiles a case-insensitive, word-bounded alternation.
func word(alts string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + alts + `)\b`)
}

// matches reports whether re matches and exclude (if set) does not.
func matches(text string, re, exclude *regexp.Regexp) bool {
	if !re.MatchString(text) {
		return false
	}
	return exclude == nil || !exclude.MatchString(text)
}

// rule maps a subtype pattern to a flat volume.
type rule struct {
	name string
	re   *regexp.Regexp
	cuft float64
}

// firstRule returns the first rule whose pattern matches text.
func firstRule(text string, rules []rule) (rule, bool) {
	for _, r := range rules {
		if r.re.MatchString(text) {
			return r, true
		}
	}
	return rule{}, false
}

var countPattern = regexp.MustCompile(`(?i)\b(?:set of|pack of)\s+(\d{1,2})\b|\b(\d{1,2})[- ]?(?:pack|pc|pcs|piece|pieces)\b`)

// itemCount parses "set of 4" / "2-pack" style multipliers; defaults to 1.
func itemCount(text string) int {
	m := countPattern.FindStringSubmatch(text)
	if m == nil {
		return 1
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 12 {
		return 1
	}
	return n
}

var (
	calKingRe = word(`cal(?:ifornia)?[ -]?king`)
	kingRe    = word(`king`)
	queenRe   = word(`queen`)
	fullRe    = word(`full|double`)
	twinRe    = word(`twin(?:[ -]?xl)?|single`)
	cribRe    = word(`cribs?|toddler`)
)

// bedSize detects a standard bed size, or def when none is mentioned.
func bedSize(text, def string) string {
	switch {
	case calKingRe.MatchString(text):
		return "cal_king"
	case kingRe.MatchString(text):
		return "king"
	case queenRe.MatchString(text):
		return "queen"
	case fullRe.MatchString(text):
		return "full"
	case twinRe.MatchString(text):
		return "twin"
	case cribRe.MatchString(text):
		return "crib"
	}
	return def
}

// paddedBoxFt3 returns the volume of the assembled dims grown by pad inches on
// every axis, at least floor.
func paddedBoxFt3(d *model.Dims, pad, floor float64) float64 {
	v := geometry.BoxVolumeFt3(d.LengthIn+pad, d.WidthIn+pad, d.HeightIn+pad)
	return max(v, floor)
}
