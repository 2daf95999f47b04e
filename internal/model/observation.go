package model

import "time"

// Source identifies who reported a dimension observation.
type Source string

const (
	SourceManual   Source = "manual"
	SourceOverride Source = "override"
	SourceAmazon   Source = "amazon"
	SourceZyte     Source = "zyte"
	SourceOther    Source = "other"
)

// ParseSource maps a raw source string to a known Source. Unknown values
// collapse to SourceOther.
func ParseSource(s string) Source {
	switch Source(s) {
	case SourceManual, SourceOverride, SourceAmazon, SourceZyte:
		return Source(s)
	default:
		return SourceOther
	}
}

// Valid reports whether s is one of the enumerated sources.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceOverride, SourceAmazon, SourceZyte, SourceOther:
		return true
	}
	return false
}

// DimensionObservation is one reported measurement of a variant's shipping
// package. Rows are append-only and never mutated after insert.
type DimensionObservation struct {
	ID              string    `json:"id"`
	VariantID       string    `json:"variant_id"`
	Source          Source    `json:"source"`
	LengthIn        float64   `json:"length_in"`
	WidthIn         float64   `json:"width_in"`
	HeightIn        float64   `json:"height_in"`
	WeightLb        *float64  `json:"weight_lb,omitempty"`
	BoxesPerUnit    int       `json:"boxes_per_unit"`
	ConfidenceLevel float64   `json:"confidence_level"`
	ObservedAt      time.Time `json:"observed_at"`
}

// Complete reports whether all three box dimensions are present and positive.
func (o DimensionObservation) Complete() bool {
	return o.LengthIn > 0 && o.WidthIn > 0 && o.HeightIn > 0
}

// VolumeIn3 returns the box volume in cubic inches (0 when incomplete).
func (o DimensionObservation) VolumeIn3() float64 {
	if !o.Complete() {
		return 0
	}
	return o.LengthIn * o.WidthIn * o.HeightIn
}

// HasWeight reports whether the observation carries a positive weight.
func (o DimensionObservation) HasWeight() bool {
	return o.WeightLb != nil && *o.WeightLb > 0
}

// PackagingRecord is the single authoritative, reconciled shipping spec for a
// variant. At most one exists per variant.
type PackagingRecord struct {
	VariantID           string    `json:"variant_id"`
	BoxLengthIn         float64   `json:"box_length_in"`
	BoxWidthIn          float64   `json:"box_width_in"`
	BoxHeightIn         float64   `json:"box_height_in"`
	BoxWeightLb         float64   `json:"box_weight_lb"`
	BoxesPerUnit        int       `json:"boxes_per_unit"`
	ReconciledSource    Source    `json:"reconciled_source"`
	ReconciledConfLevel float64   `json:"reconciled_conf_level"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Complete reports whether the record has all three box dimensions.
func (p PackagingRecord) Complete() bool {
	return p.BoxLengthIn > 0 && p.BoxWidthIn > 0 && p.BoxHeightIn > 0
}

// CategoryPattern holds learned packaging statistics for a leaf category.
type CategoryPattern struct {
	Category    string    `json:"category"`
	AvgLengthIn float64   `json:"avg_length_in"`
	MinLengthIn float64   `json:"min_length_in"`
	MaxLengthIn float64   `json:"max_length_in"`
	AvgWidthIn  float64   `json:"avg_width_in"`
	MinWidthIn  float64   `json:"min_width_in"`
	MaxWidthIn  float64   `json:"max_width_in"`
	AvgHeightIn float64   `json:"avg_height_in"`
	MinHeightIn float64   `json:"min_height_in"`
	MaxHeightIn float64   `json:"max_height_in"`
	AvgWeightLb float64   `json:"avg_weight_lb"`
	MinWeightLb float64   `json:"min_weight_lb"`
	MaxWeightLb float64   `json:"max_weight_lb"`
	SampleCount int       `json:"sample_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}
