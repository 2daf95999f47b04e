package dimensions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dimfreight/internal/model"
	"github.com/sells-group/dimfreight/internal/reconcile"
	"github.com/sells-group/dimfreight/internal/store"
)

var observedAt = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

func ptr(f float64) *float64 { return &f }

func seeded(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemory()
	require.NoError(t, s.UpsertProduct(context.Background(), model.Product{
		ID:          "p1",
		Title:       "Cloud Sofa",
		Breadcrumbs: []string{"Home", "Sofas", "SKU-1001"},
		Variants:    []model.Variant{{ID: "v1", SKU: "SOFA-1"}},
	}))
	return s
}

func TestResolve_Tiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setup    func(t *testing.T, s *store.MemoryStore)
		source   Source
		conf     float64
		dims     Dimensions
		boxes    int
		cuft     float64
		lastNote string
	}{
		{
			name: "packaging",
			setup: func(t *testing.T, s *store.MemoryStore) {
				require.NoError(t, s.UpsertPackaging(context.Background(), model.PackagingRecord{
					VariantID: "v1", BoxLengthIn: 40, BoxWidthIn: 30, BoxHeightIn: 20, BoxWeightLb: 55,
					BoxesPerUnit: 2, ReconciledSource: model.SourceManual, ReconciledConfLevel: 0.9,
				}))
			},
			source:   SourcePackaging,
			conf:     0.9,
			dims:     Dimensions{LengthIn: 40, WidthIn: 30, HeightIn: 20, WeightLb: 55},
			boxes:    2,
			cuft:     27.78,
			lastNote: "packaging: reconciled from manual",
		},
		{
			name: "confident observation",
			setup: func(t *testing.T, s *store.MemoryStore) {
				ctx := context.Background()
				require.NoError(t, s.InsertObservation(ctx, model.DimensionObservation{
					VariantID: "v1", Source: model.SourceAmazon, LengthIn: 48, WidthIn: 20, HeightIn: 20,
					BoxesPerUnit: 1, ConfidenceLevel: 0.85, ObservedAt: observedAt,
				}))
				require.NoError(t, s.InsertObservation(ctx, model.DimensionObservation{
					VariantID: "v1", Source: model.SourceZyte, LengthIn: 10, WidthIn: 10, HeightIn: 10,
					BoxesPerUnit: 1, ConfidenceLevel: 0.6, ObservedAt: observedAt.Add(time.Hour),
				}))
			},
			source:   SourceObservation,
			conf:     0.85,
			dims:     Dimensions{LengthIn: 48, WidthIn: 20, HeightIn: 20, WeightLb: DefaultWeightLb},
			boxes:    1,
			cuft:     11.11,
			lastNote: "observation: amazon observed 2025-05-20",
		},
		{
			name: "category pattern",
			setup: func(t *testing.T, s *store.MemoryStore) {
				require.NoError(t, s.UpsertCategoryPatterns(context.Background(), []model.CategoryPattern{{
					Category: "Sofas", AvgLengthIn: 80, AvgWidthIn: 38, AvgHeightIn: 34, AvgWeightLb: 30, SampleCount: 4,
				}}))
			},
			source:   SourceCategory,
			conf:     CategoryConf,
			dims:     Dimensions{LengthIn: 80, WidthIn: 38, HeightIn: 34, WeightLb: 30},
			boxes:    1,
			cuft:     59.81,
			lastNote: "category Sofas: average of 4 samples",
		},
		{
			name: "pattern without length falls to default",
			setup: func(t *testing.T, s *store.MemoryStore) {
				require.NoError(t, s.UpsertCategoryPatterns(context.Background(), []model.CategoryPattern{{
					Category: "Sofas", AvgWeightLb: 30, SampleCount: 1,
				}}))
			},
			source:   SourceDefault,
			conf:     DefaultConf,
			dims:     DefaultDims,
			boxes:    1,
			cuft:     3,
			lastNote: "default: 24x18x12 in, 10 lb",
		},
		{
			name:     "nothing known",
			setup:    func(*testing.T, *store.MemoryStore) {},
			source:   SourceDefault,
			conf:     DefaultConf,
			dims:     DefaultDims,
			boxes:    1,
			cuft:     3,
			lastNote: "default: 24x18x12 in, 10 lb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := seeded(t)
			tt.setup(t, s)

			got, err := New(s).Resolve(context.Background(), "SOFA-1")
			require.NoError(t, err)
			assert.Equal(t, "v1", got.VariantID)
			assert.Equal(t, tt.source, got.Source)
			assert.InDelta(t, tt.conf, got.ConfLevel, 0.0001)
			assert.Equal(t, tt.dims, got.Dimensions)
			assert.Equal(t, tt.boxes, got.BoxesPerUnit)
			assert.InDelta(t, tt.cuft, got.Cuft, 0.001)
			require.NotEmpty(t, got.Notes)
			assert.Equal(t, tt.lastNote, got.Notes[len(got.Notes)-1])
		})
	}
}

func TestResolve_UnknownSKU(t *testing.T) {
	t.Parallel()
	_, err := New(seeded(t)).Resolve(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestResolve_AfterReconcileIsPackaging(t *testing.T) {
	t.Parallel()
	s := seeded(t)
	ctx := context.Background()

	inputs := []reconcile.ObservationInput{
		{Source: "zyte", LengthIn: 40, WidthIn: 30, HeightIn: 20, ConfLevel: 0.4},
		{Source: "other", LengthIn: 1, WidthIn: 2, HeightIn: 3, ConfLevel: 0.1},
		{Source: "amazon", LengthIn: 90, WidthIn: 40, HeightIn: 36, WeightLb: ptr(120), BoxesPerUnit: 2, ConfLevel: 0.95},
	}
	r := reconcile.New(s)
	for _, in := range inputs {
		rec, err := r.InsertObservationAndReconcile(ctx, "v1", in)
		require.NoError(t, err)
		require.NotNil(t, rec)

		got, err := New(s).Resolve(ctx, "SOFA-1")
		require.NoError(t, err)
		assert.Equal(t, SourcePackaging, got.Source)
		assert.InDelta(t, rec.ReconciledConfLevel, got.ConfLevel, 0.0001)
	}
}

type brokenStore struct {
	*store.MemoryStore
	variantErr, packagingErr, observationErr, patternErr error
}

func (b *brokenStore) GetVariantBySKU(ctx context.Context, sku string) (*model.Variant, error) {
	if b.variantErr != nil {
		return nil, b.variantErr
	}
	return b.MemoryStore.GetVariantBySKU(ctx, sku)
}

func (b *brokenStore) GetPackaging(ctx context.Context, id string) (*model.PackagingRecord, error) {
	if b.packagingErr != nil {
		return nil, b.packagingErr
	}
	return b.MemoryStore.GetPackaging(ctx, id)
}

func (b *brokenStore) LatestConfidentObservation(ctx context.Context, id string, minConf float64) (*model.DimensionObservation, error) {
	if b.observationErr != nil {
		return nil, b.observationErr
	}
	return b.MemoryStore.LatestConfidentObservation(ctx, id, minConf)
}

func (b *brokenStore) GetCategoryPattern(ctx context.Context, c string) (*model.CategoryPattern, error) {
	if b.patternErr != nil {
		return nil, b.patternErr
	}
	return b.MemoryStore.GetCategoryPattern(ctx, c)
}

func TestResolve_TierFailuresDegrade(t *testing.T) {
	t.Parallel()
	boom := errors.New("conn closed")
	s := &brokenStore{MemoryStore: seeded(t), packagingErr: boom, observationErr: boom, patternErr: boom}

	got, err := New(s).Resolve(context.Background(), "SOFA-1")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, got.Source)
	assert.Equal(t, []string{
		"packaging: lookup failed: conn closed",
		"observation: lookup failed: conn closed",
		"category Sofas: lookup failed: conn closed",
		"default: 24x18x12 in, 10 lb",
	}, got.Notes)
}

func TestResolve_VariantLookupFailure(t *testing.T) {
	t.Parallel()
	s := &brokenStore{MemoryStore: seeded(t), variantErr: errors.New("conn closed")}

	_, err := New(s).Resolve(context.Background(), "SOFA-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrVariantNotFound)
}
