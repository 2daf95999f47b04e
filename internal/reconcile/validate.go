package reconcile

import (
	"fmt"
	"strings"

	"github.com/sells-group/dimfreight/internal/model"
)

// Plausibility limits for a single shipping box.
const (
	MaxSideIn   = 240.0
	MaxWeightLb = 2000.0
)

// Violation is one rejected field.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every violated field of an observation or record.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + " " + v.Reason
	}
	return "reconcile: invalid dimensions: " + strings.Join(parts, "; ")
}

// Fields returns the violated field names in order.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Field
	}
	return out
}

type checker struct {
	violations []Violation
}

func (c *checker) add(field, format string, args ...any) {
	c.violations = append(c.violations, Violation{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (c *checker) side(field string, v float64) {
	switch {
	case v <= 0:
		c.add(field, "must be positive, got %g", v)
	case v > MaxSideIn:
		c.add(field, "exceeds %g in, got %g", MaxSideIn, v)
	}
}

func (c *checker) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: c.violations}
}

// ValidateObservation checks an incoming observation. A zero weight means
// unknown; a zero box count defaults to one.
func ValidateObservation(in ObservationInput) error {
	var c checker
	if !model.Source(in.Source).Valid() {
		c.add("source", "unknown source %q", in.Source)
	}
	c.side("length_in", in.LengthIn)
	c.side("width_in", in.WidthIn)
	c.side("height_in", in.HeightIn)
	if w := in.WeightLb; w != nil && (*w < 0 || *w > MaxWeightLb) {
		c.add("weight_lb", "must be within [0, %g], got %g", MaxWeightLb, *w)
	}
	if in.BoxesPerUnit < 0 {
		c.add("boxes_per_unit", "must be at least 1, got %d", in.BoxesPerUnit)
	}
	if in.ConfLevel < 0 || in.ConfLevel > 1 {
		c.add("confidence_level", "must be within [0, 1], got %g", in.ConfLevel)
	}
	return c.err()
}

// ValidateRecord checks a reconciled packaging record before it is written.
func ValidateRecord(rec model.PackagingRecord) error {
	var c checker
	if rec.VariantID == "" {
		c.add("variant_id", "is required")
	}
	if !rec.ReconciledSource.Valid() {
		c.add("reconciled_source", "unknown source %q", rec.ReconciledSource)
	}
	c.side("box_length_in", rec.BoxLengthIn)
	c.side("box_width_in", rec.BoxWidthIn)
	c.side("box_height_in", rec.BoxHeightIn)
	if rec.BoxWeightLb <= 0 || rec.BoxWeightLb > MaxWeightLb {
		c.add("box_weight_lb", "must be within (0, %g], got %g", MaxWeightLb, rec.BoxWeightLb)
	}
	if rec.BoxesPerUnit < 1 {
		c.add("boxes_per_unit", "must be at least 1, got %d", rec.BoxesPerUnit)
	}
	if rec.ReconciledConfLevel < MinConfidence || rec.ReconciledConfLevel > MaxConfidence {
		c.add("reconciled_conf_level", "must be within [%g, %g], got %g", MinConfidence, MaxConfidence, rec.ReconciledConfLevel)
	}
	return c.err()
}
