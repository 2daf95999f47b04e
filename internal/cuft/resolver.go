// Package cuft resolves a single item's billable shipping volume from a
// box manifest, a scraped bounding box or a per-category fallback table.
package cuft

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/config"
	"github.com/sells-group/dimfreight/internal/geometry"
	"github.com/sells-group/dimfreight/internal/model"
)

// Input is the evidence for one resolution. Any field may be empty.
type Input struct {
	Category    string      `json:"category,omitempty"`
	ScrapedDims *model.Dims `json:"scraped_dims,omitempty"`
	BoxesText   string      `json:"boxes_text,omitempty"`
}

// Resolver applies the manifest, scraped and fallback precedence followed by
// the minimum charge, safety factor and clamp.
type Resolver struct {
	tuning config.ResolverTuning
}

// NewResolver creates a Resolver with the given tuning.
func NewResolver(t config.ResolverTuning) *Resolver {
	return &Resolver{tuning: t}
}

// Resolve never fails: with no evidence at all it returns the clamped
// fallback for an unknown category.
func (r *Resolver) Resolve(in Input) model.CubicFootEstimate {
	est := model.CubicFootEstimate{
		SafetyFactor: r.tuning.SafetyFactor,
		Meta:         map[string]any{},
	}

	var vol float64
	if boxes := geometry.ParseBoxes(in.BoxesText); len(boxes) > 0 {
		for _, b := range boxes {
			vol += b.VolumeFt3()
		}
		est.Source = model.CuftActualBoxes
		est.Meta["box_count"] = len(boxes)
	} else if d := in.ScrapedDims; d.Valid() {
		vol = geometry.BoxVolumeFt3(d.HeightIn, d.WidthIn, d.LengthIn)
		est.Source = model.CuftScrapedDims
	} else {
		key, v := FallbackFor(in.Category)
		vol = v
		est.Source = model.CuftFallback
		est.Meta["fallback_key"] = key
	}
	vol = geometry.Round2(vol)
	est.PreMinCuft = vol

	if est.Source != model.CuftActualBoxes && vol < r.tuning.MinChargeFt3 {
		vol = r.tuning.MinChargeFt3
		est.Meta["min_charge_applied"] = true
	}
	est.PreSafetyCuft = vol

	out := geometry.Round2(vol * r.tuning.SafetyFactor)
	switch {
	case out < r.tuning.ClampMin:
		out, est.Clamped = r.tuning.ClampMin, true
	case out > r.tuning.ClampMax:
		out, est.Clamped = r.tuning.ClampMax, true
	}
	est.Cuft = out

	if c := strings.TrimSpace(in.Category); c != "" {
		est.Meta["category"] = c
	}

	zap.L().Debug("cuft: resolved",
		zap.String("source", string(est.Source)),
		zap.String("category", in.Category),
		zap.Float64("pre_min_cuft", est.PreMinCuft),
		zap.Float64("pre_safety_cuft", est.PreSafetyCuft),
		zap.Float64("safety_factor", est.SafetyFactor),
		zap.Float64("cuft", est.Cuft),
		zap.Bool("clamped", est.Clamped),
	)

	return est
}
