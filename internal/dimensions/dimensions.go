// Package dimensions answers "how big is this SKU's shipment" at read time.
// It always produces a figure: packaging, then a confident observation, then
// the learned category pattern, then a fixed default.
package dimensions

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/geometry"
	"github.com/sells-group/dimfreight/internal/model"
	"github.com/sells-group/dimfreight/internal/store"
)

// ErrVariantNotFound is returned when no variant has the requested SKU.
var ErrVariantNotFound = eris.New("dimensions: variant not found")

// Source is the tier that produced a result.
type Source string

const (
	SourcePackaging   Source = "packaging"
	SourceObservation Source = "observation"
	SourceCategory    Source = "category"
	SourceDefault     Source = "default"
)

// Tier constants.
const (
	MinObservationConf = 0.8
	CategoryConf       = 0.50
	DefaultConf        = 0.30
	DefaultWeightLb    = 10.0
)

// DefaultDims is the box used when nothing else is known.
var DefaultDims = Dimensions{LengthIn: 24, WidthIn: 18, HeightIn: 12, WeightLb: DefaultWeightLb}

// Dimensions is a single box with its weight.
type Dimensions struct {
	LengthIn float64 `json:"length_in"`
	WidthIn  float64 `json:"width_in"`
	HeightIn float64 `json:"height_in"`
	WeightLb float64 `json:"weight_lb"`
}

// Result is a resolved shipping size for a SKU.
type Result struct {
	SKU          string     `json:"sku"`
	VariantID    string     `json:"variant_id"`
	Source       Source     `json:"source"`
	ConfLevel    float64    `json:"conf_level"`
	Dimensions   Dimensions `json:"dimensions"`
	BoxesPerUnit int        `json:"boxes_per_unit"`
	Cuft         float64    `json:"cuft"`
	Notes        []string   `json:"notes,omitempty"`
}

// Store is the read access the resolver needs.
type Store interface {
	GetVariantBySKU(ctx context.Context, sku string) (*model.Variant, error)
	GetPackaging(ctx context.Context, variantID string) (*model.PackagingRecord, error)
	LatestConfidentObservation(ctx context.Context, variantID string, minConfidence float64) (*model.DimensionObservation, error)
	GetCategoryPattern(ctx context.Context, category string) (*model.CategoryPattern, error)
}

// Resolver resolves SKUs to dimensions.
type Resolver struct {
	store Store
}

// New creates a Resolver.
func New(s Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns ErrVariantNotFound for an unknown SKU and a wrapped error
// when the variant lookup itself fails. Failures inside a tier are noted and
// fall through to the next tier.
func (r *Resolver) Resolve(ctx context.Context, sku string) (*Result, error) {
	v, err := r.store.GetVariantBySKU(ctx, sku)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dimensions: lookup sku %s", sku)
	}

	res := &Result{SKU: sku, VariantID: v.ID}
	log := zap.L().With(zap.String("sku", sku), zap.String("variant_id", v.ID))

	if !r.fromPackaging(ctx, res) && !r.fromObservation(ctx, res) && !r.fromCategory(ctx, v.LeafCategory(), res) {
		res.Source = SourceDefault
		res.ConfLevel = DefaultConf
		res.Dimensions = DefaultDims
		res.BoxesPerUnit = 1
		res.Notes = append(res.Notes, "default: 24x18x12 in, 10 lb")
	}

	d := res.Dimensions
	res.Cuft = geometry.Round2(geometry.BoxVolumeFt3(d.HeightIn, d.WidthIn, d.LengthIn) * float64(res.BoxesPerUnit))

	log.Info("dimensions: resolved",
		zap.String("strategy", string(res.Source)),
		zap.Float64("conf_level", res.ConfLevel),
		zap.Float64("cuft", res.Cuft),
		zap.Strings("notes", res.Notes),
	)
	return res, nil
}

func (r *Resolver) fromPackaging(ctx context.Context, res *Result) bool {
	p, err := r.store.GetPackaging(ctx, res.VariantID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		res.note("packaging: none")
		return false
	case err != nil:
		res.note("packaging: lookup failed: %v", err)
		return false
	case !p.Complete():
		res.note("packaging: incomplete")
		return false
	}
	res.Source = SourcePackaging
	res.ConfLevel = p.ReconciledConfLevel
	res.Dimensions = Dimensions{LengthIn: p.BoxLengthIn, WidthIn: p.BoxWidthIn, HeightIn: p.BoxHeightIn, WeightLb: p.BoxWeightLb}
	res.BoxesPerUnit = max(p.BoxesPerUnit, 1)
	res.note("packaging: reconciled from %s", p.ReconciledSource)
	return true
}

func (r *Resolver) fromObservation(ctx context.Context, res *Result) bool {
	o, err := r.store.LatestConfidentObservation(ctx, res.VariantID, MinObservationConf)
	switch {
	case errors.Is(err, store.ErrNotFound):
		res.note("observation: none with confidence >= %.2f", MinObservationConf)
		return false
	case err != nil:
		res.note("observation: lookup failed: %v", err)
		return false
	}
	res.Source = SourceObservation
	res.ConfLevel = o.ConfidenceLevel
	res.Dimensions = Dimensions{LengthIn: o.LengthIn, WidthIn: o.WidthIn, HeightIn: o.HeightIn, WeightLb: DefaultWeightLb}
	if o.HasWeight() {
		res.Dimensions.WeightLb = *o.WeightLb
	} else {
		res.note("observation: weight defaulted")
	}
	res.BoxesPerUnit = max(o.BoxesPerUnit, 1)
	res.note("observation: %s observed %s", o.Source, o.ObservedAt.Format("2006-01-02"))
	return true
}

func (r *Resolver) fromCategory(ctx context.Context, category string, res *Result) bool {
	if category == "" {
		res.note("category: none")
		return false
	}
	p, err := r.store.GetCategoryPattern(ctx, category)
	switch {
	case errors.Is(err, store.ErrNotFound):
		res.note("category %s: no pattern", category)
		return false
	case err != nil:
		res.note("category %s: lookup failed: %v", category, err)
		return false
	case p.AvgLengthIn <= 0:
		res.note("category %s: no length data", category)
		return false
	}
	res.Source = SourceCategory
	res.ConfLevel = CategoryConf
	res.Dimensions = Dimensions{LengthIn: p.AvgLengthIn, WidthIn: p.AvgWidthIn, HeightIn: p.AvgHeightIn, WeightLb: p.AvgWeightLb}
	res.BoxesPerUnit = 1
	res.note("category %s: average of %d samples", category, p.SampleCount)
	return true
}

func (res *Result) note(format string, args ...any) {
	res.Notes = append(res.Notes, fmt.Sprintf(format, args...))
}
