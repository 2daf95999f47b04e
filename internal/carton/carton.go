// Package carton estimates the shipped carton volume of a product from its
// assembled dimensions and how its vendor ships.
package carton

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/config"
	"github.com/sells-group/dimfreight/internal/cuft"
	"github.com/sells-group/dimfreight/internal/geometry"
	"github.com/sells-group/dimfreight/internal/model"
)

// Branch tags which path produced an estimate's vendor tier.
type Branch string

const (
	BranchAdminOverride   Branch = "admin_override"
	BranchVendorTier      Branch = "vendor_tier"
	BranchAIInferred      Branch = "ai_inferred"
	BranchNoAssembledDims Branch = "no_assembled_dims"
)

// Estimate is a carton estimate with its computation trail. Cuft is the
// resolver's output; the other volumes are unrounded intermediates.
type Estimate struct {
	Cuft         model.CubicFootEstimate `json:"cuft"`
	Branch       Branch                  `json:"branch"`
	Tier         Tier                    `json:"tier,omitempty"`
	Confidence   float64                 `json:"confidence,omitempty"`
	Profile      Profile                 `json:"profile"`
	AssembledFt3 float64                 `json:"assembled_ft3,omitempty"`
	BaseFt3      float64                 `json:"base_ft3,omitempty"`
	ClampedFt3   float64                 `json:"clamped_ft3,omitempty"`
	Padded       bool                    `json:"padded,omitempty"`
	BoxDims      *model.Dims             `json:"box_dims,omitempty"`
	FloorApplied bool                    `json:"floor_applied,omitempty"`
}

// Estimator turns assembled dimensions into a carton volume.
type Estimator struct {
	vendors    config.CartonTuning
	resolver   *cuft.Resolver
	classifier Classifier
}

// NewEstimator creates an Estimator. A nil classifier uses the heuristic one.
func NewEstimator(t config.Tuning, classifier Classifier) *Estimator {
	if classifier == nil {
		classifier = HeuristicClassifier{}
	}
	return &Estimator{
		vendors:    t.Carton,
		resolver:   cuft.NewResolver(t.Resolver),
		classifier: classifier,
	}
}

// Estimate never fails. Missing assembled dims fall through to the cubic-foot
// resolver; classifier errors fall back to the heuristic classifier.
func (e *Estimator) Estimate(ctx context.Context, f model.ProductFacts) Estimate {
	profile := ProfileFor(f)
	category := f.LeafCategory()
	log := zap.L().With(zap.String("sku", f.SKU), zap.String("profile", profile.Name))

	var est Estimate
	switch {
	case len(geometry.ParseBoxes(f.OverrideBoxesText)) > 0:
		est = Estimate{
			Branch: BranchAdminOverride,
			Cuft:   e.resolver.Resolve(cuft.Input{Category: category, BoxesText: f.OverrideBoxesText}),
		}
	case !f.AssembledDims.Valid():
		est = Estimate{
			Branch: BranchNoAssembledDims,
			Cuft: e.resolver.Resolve(cuft.Input{
				Category:    category,
				ScrapedDims: f.ScrapedDims,
				BoxesText:   f.BoxesText,
			}),
		}
	default:
		est = e.fromAssembled(ctx, f, profile, category)
	}
	est.Profile = profile

	if est.Cuft.Cuft < profile.MinFloorFt3 {
		est.Cuft.Cuft = profile.MinFloorFt3
		est.FloorApplied = true
	}

	log.Info("carton: estimated",
		zap.String("branch", string(est.Branch)),
		zap.String("tier", string(est.Tier)),
		zap.Float64("assembled_ft3", est.AssembledFt3),
		zap.Float64("base_ft3", est.BaseFt3),
		zap.Float64("clamped_ft3", est.ClampedFt3),
		zap.Float64("cuft", est.Cuft.Cuft),
		zap.Bool("floor_applied", est.FloorApplied),
	)
	return est
}

func (e *Estimator) fromAssembled(ctx context.Context, f model.ProductFacts, p Profile, category string) Estimate {
	est := Estimate{Branch: BranchVendorTier, Confidence: 1}
	if tier, ok := e.vendorTier(f.Vendor); ok {
		est.Tier = tier
	} else {
		// HeuristicClassifier never errors; other classifiers degrade to it.
		cls, err := e.classifier.Classify(ctx, f)
		if err != nil {
			cls, _ = HeuristicClassifier{}.Classify(ctx, f)
		}
		est.Branch, est.Tier, est.Confidence = BranchAIInferred, cls.Tier, cls.Confidence
	}

	assembled := geometry.CubicInchesToFeet(f.AssembledDims.VolumeIn3())
	base := assembled * p.Factor * est.Tier.multiplier()
	if est.Branch != BranchVendorTier || est.Tier == TierFlatpack {
		base *= 1 + p.Padding
		est.Padded = true
	}
	clamped := min(max(base, assembled*(1-p.ClampPct)), assembled*(1+p.ClampPct))
	clamped = max(clamped, p.MinFloorFt3)

	est.AssembledFt3, est.BaseFt3, est.ClampedFt3 = assembled, base, clamped
	est.BoxDims = scaleDims(f.AssembledDims, clamped/assembled)
	est.Cuft = e.resolver.Resolve(cuft.Input{Category: category, ScrapedDims: est.BoxDims})
	return est
}

// vendorTier matches the vendor against the configured lists. Assembled
// wins when a vendor appears in both.
func (e *Estimator) vendorTier(vendor string) (Tier, bool) {
	v := strings.ToLower(strings.TrimSpace(vendor))
	if v == "" {
		return "", false
	}
	if listed(v, e.vendors.AssembledVendors) {
		return TierAssembled, true
	}
	if listed(v, e.vendors.FlatpackVendors) {
		return TierFlatpack, true
	}
	return "", false
}

func listed(vendor string, names []string) bool {
	for _, n := range names {
		if vendor == n || strings.Contains(vendor, n) {
			return true
		}
	}
	return false
}

// scaleDims scales each side by the cube root of ratio so the box keeps the
// assembled proportions at the target volume.
func scaleDims(d *model.Dims, ratio float64) *model.Dims {
	s := math.Cbrt(ratio)
	return &model.Dims{
		LengthIn: d.LengthIn * s,
		WidthIn:  d.WidthIn * s,
		HeightIn: d.HeightIn * s,
	}
}
