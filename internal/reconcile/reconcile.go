// Package reconcile ingests dimension observations and folds the most recent
// ones into a variant's authoritative packaging record.
package reconcile

import (
	"context"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/model"
)

// Reconciliation constants.
const (
	RecentLimit     = 10
	DefaultWeightLb = 10.0
	MinConfidence   = 0.5
	MaxConfidence   = 0.99
	DecayDays       = 180.0
	MinRecency      = 0.5
	VolumeTolerance = 0.10
)

var sourceWeights = map[model.Source]float64{
	model.SourceManual:   1.20,
	model.SourceOverride: 1.20,
	model.SourceAmazon:   1.05,
	model.SourceZyte:     1.00,
	model.SourceOther:    0.95,
}

// SourceWeight returns the trust multiplier for a source.
func SourceWeight(s model.Source) float64 {
	if w, ok := sourceWeights[s]; ok {
		return w
	}
	return sourceWeights[model.SourceOther]
}

// RecencyWeight decays linearly over DecayDays and never drops below
// MinRecency. Future timestamps count as fresh.
func RecencyWeight(observedAt, now time.Time) float64 {
	days := now.Sub(observedAt).Hours() / 24
	return max(MinRecency, min(1, 1-days/DecayDays))
}

// ObservationInput is an observation as reported by an upstream collaborator.
type ObservationInput struct {
	Source       string    `json:"source"`
	LengthIn     float64   `json:"length_in"`
	WidthIn      float64   `json:"width_in"`
	HeightIn     float64   `json:"height_in"`
	WeightLb     *float64  `json:"weight_lb,omitempty"`
	BoxesPerUnit int       `json:"boxes_per_unit,omitempty"`
	ConfLevel    float64   `json:"confidence_level"`
	ObservedAt   time.Time `json:"observed_at,omitempty"`
}

// Store is the persistence the reconciler needs.
type Store interface {
	InsertObservation(ctx context.Context, obs model.DimensionObservation) error
	RecentObservations(ctx context.Context, variantID string, limit int) ([]model.DimensionObservation, error)
	UpsertPackaging(ctx context.Context, rec model.PackagingRecord) error
}

// Reconciler owns writes to observations and packaging records.
type Reconciler struct {
	store Store
	now   func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the reconciler's time source.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// New creates a Reconciler.
func New(s Store, opts ...Option) *Reconciler {
	r := &Reconciler{store: s, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// InsertObservationAndReconcile validates and stores a new observation, then
// reconciles the variant. A *ValidationError or an insert failure is
// returned; reconciliation failures are logged and yield a nil record, leaving
// any previous record in place.
func (r *Reconciler) InsertObservationAndReconcile(ctx context.Context, variantID string, in ObservationInput) (*model.PackagingRecord, error) {
	if variantID == "" {
		return nil, &ValidationError{Violations: []Violation{{Field: "variant_id", Reason: "is required"}}}
	}
	if err := ValidateObservation(in); err != nil {
		return nil, err
	}

	obs := model.DimensionObservation{
		ID:              uuid.New().String(),
		VariantID:       variantID,
		Source:          model.Source(in.Source),
		LengthIn:        in.LengthIn,
		WidthIn:         in.WidthIn,
		HeightIn:        in.HeightIn,
		WeightLb:        in.WeightLb,
		BoxesPerUnit:    max(in.BoxesPerUnit, 1),
		ConfidenceLevel: in.ConfLevel,
		ObservedAt:      in.ObservedAt,
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = r.now().UTC()
	}
	if err := r.store.InsertObservation(ctx, obs); err != nil {
		return nil, eris.Wrapf(err, "reconcile: insert observation for %s", variantID)
	}

	rec, err := r.ReconcileVariantDimensions(ctx, variantID)
	if err != nil {
		zap.L().Error("reconcile: skipped",
			zap.String("variant_id", variantID),
			zap.String("observation_id", obs.ID),
			zap.Error(err),
		)
		return nil, nil
	}
	return rec, nil
}

type scored struct {
	obs   model.DimensionObservation
	score float64
}

// ReconcileVariantDimensions rebuilds the packaging record from the latest
// observations. It returns a nil record and nil error when no recent
// observation is complete.
func (r *Reconciler) ReconcileVariantDimensions(ctx context.Context, variantID string) (*model.PackagingRecord, error) {
	log := zap.L().With(zap.String("variant_id", variantID))

	recent, err := r.store.RecentObservations(ctx, variantID, RecentLimit)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: load observations for %s", variantID)
	}

	now := r.now()
	ranked := rank(recent, now)

	idx := slices.IndexFunc(ranked, func(s scored) bool { return s.obs.Complete() })
	if idx < 0 {
		log.Info("reconcile: no complete observation", zap.Int("observations", len(recent)))
		return nil, nil
	}
	chosen := ranked[idx]

	weight, weightFrom := resolveWeight(ranked, idx)
	rec := model.PackagingRecord{
		VariantID:           variantID,
		BoxLengthIn:         chosen.obs.LengthIn,
		BoxWidthIn:          chosen.obs.WidthIn,
		BoxHeightIn:         chosen.obs.HeightIn,
		BoxWeightLb:         weight,
		BoxesPerUnit:        max(chosen.obs.BoxesPerUnit, 1),
		ReconciledSource:    chosen.obs.Source,
		ReconciledConfLevel: min(max(chosen.obs.ConfidenceLevel, MinConfidence), MaxConfidence),
		UpdatedAt:           now.UTC(),
	}

	if err := ValidateRecord(rec); err != nil {
		return nil, eris.Wrapf(err, "reconcile: reject record for %s", variantID)
	}
	if err := r.store.UpsertPackaging(ctx, rec); err != nil {
		return nil, eris.Wrapf(err, "reconcile: upsert packaging for %s", variantID)
	}

	log.Info("reconcile: packaging updated",
		zap.String("observation_id", chosen.obs.ID),
		zap.String("source", string(rec.ReconciledSource)),
		zap.Float64("score", chosen.score),
		zap.Float64("weight_lb", weight),
		zap.String("weight_from", weightFrom),
		zap.Float64("conf_level", rec.ReconciledConfLevel),
	)
	return &rec, nil
}

// rank scores observations and orders them best first; equal scores go to
// the more recent observation.
func rank(obs []model.DimensionObservation, now time.Time) []scored {
	out := make([]scored, len(obs))
	for i, o := range obs {
		out[i] = scored{
			obs:   o,
			score: SourceWeight(o.Source) * o.ConfidenceLevel * RecencyWeight(o.ObservedAt, now),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if math.Abs(out[i].score-out[j].score) > 1e-12 {
			return out[i].score > out[j].score
		}
		return out[i].obs.ObservedAt.After(out[j].obs.ObservedAt)
	})
	return out
}

// resolveWeight uses the chosen observation's weight, else borrows from the
// best-scoring complete observation of matching volume, else the default.
func resolveWeight(ranked []scored, chosen int) (float64, string) {
	c := ranked[chosen].obs
	if c.HasWeight() {
		return *c.WeightLb, "chosen"
	}
	for i, s := range ranked {
		if i == chosen || !s.obs.Complete() || !s.obs.HasWeight() {
			continue
		}
		if VolumesMatch(c.VolumeIn3(), s.obs.VolumeIn3()) {
			return *s.obs.WeightLb, "borrowed:" + s.obs.ID
		}
	}
	return DefaultWeightLb, "default"
}

// VolumesMatch reports whether b is within VolumeTolerance of a.
func VolumesMatch(a, b float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	return math.Abs(b-a)/a <= VolumeTolerance+1e-9
}
