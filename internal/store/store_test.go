package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dimfreight/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestMemory(t *testing.T) Store {
	t.Helper()
	return NewMemory()
}

func ptr(f float64) *float64 { return &f }

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("RecentObservationsNewestFirst", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i := 0; i < 12; i++ {
			require.NoError(t, s.InsertObservation(ctx, model.DimensionObservation{
				VariantID:       "v1",
				Source:          model.SourceZyte,
				LengthIn:        float64(10 + i),
				WidthIn:         10,
				HeightIn:        10,
				BoxesPerUnit:    1,
				ConfidenceLevel: 0.7,
				ObservedAt:      baseTime.Add(time.Duration(i) * time.Hour),
			}))
		}
		require.NoError(t, s.InsertObservation(ctx, model.DimensionObservation{
			VariantID: "other", Source: model.SourceManual, LengthIn: 1, WidthIn: 1, HeightIn: 1,
			BoxesPerUnit: 1, ConfidenceLevel: 1, ObservedAt: baseTime,
		}))

		got, err := s.RecentObservations(ctx, "v1", 10)
		require.NoError(t, err)
		require.Len(t, got, 10)
		assert.InDelta(t, 21.0, got[0].LengthIn, 0.001)
		assert.InDelta(t, 12.0, got[9].LengthIn, 0.001)
		assert.NotEmpty(t, got[0].ID)
		assert.Equal(t, model.SourceZyte, got[0].Source)
		assert.True(t, got[0].ObservedAt.Equal(baseTime.Add(11*time.Hour)))
		for _, o := range got {
			assert.Equal(t, "v1", o.VariantID)
		}
	})

	t.Run("ObservationWeightRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.InsertObservation(ctx, model.DimensionObservation{
			ID: "a", VariantID: "v1", Source: model.SourceAmazon, LengthIn: 30, WidthIn: 20, HeightIn: 10,
			WeightLb: ptr(42.5), BoxesPerUnit: 2, ConfidenceLevel: 0.6, ObservedAt: baseTime,
		}))
		require.NoError(t, s.InsertObservation(ctx, model.DimensionObservation{
			ID: "b", VariantID: "v1", Source: model.SourceOther, LengthIn: 30, WidthIn: 20, HeightIn: 10,
			BoxesPerUnit: 1, ConfidenceLevel: 0.6, ObservedAt: baseTime.Add(-time.Hour),
		}))

		got, err := s.RecentObservations(ctx, "v1", 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		require.NotNil(t, got[0].WeightLb)
		assert.InDelta(t, 42.5, *got[0].WeightLb, 0.001)
		assert.Equal(t, 2, got[0].BoxesPerUnit)
		assert.Nil(t, got[1].WeightLb)
	})

	t.Run("RecentObservationsEmpty", func(t *testing.T) {
		s := newStore(t)
		got, err := s.RecentObservations(context.Background(), "missing", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("LatestConfidentObservation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		obs := []model.DimensionObservation{
			{ID: "old", LengthIn: 40, WidthIn: 30, HeightIn: 20, ConfidenceLevel: 0.9, ObservedAt: baseTime},
			{ID: "weak", LengthIn: 41, WidthIn: 30, HeightIn: 20, ConfidenceLevel: 0.5, ObservedAt: baseTime.Add(2 * time.Hour)},
			{ID: "partial", LengthIn: 42, WidthIn: 0, HeightIn: 20, ConfidenceLevel: 0.95, ObservedAt: baseTime.Add(3 * time.Hour)},
			{ID: "good", LengthIn: 43, WidthIn: 30, HeightIn: 20, ConfidenceLevel: 0.8, ObservedAt: baseTime.Add(time.Hour)},
		}
		for _, o := range obs {
			o.VariantID = "v1"
			o.Source = model.SourceManual
			o.BoxesPerUnit = 1
			require.NoError(t, s.InsertObservation(ctx, o))
		}

		got, err := s.LatestConfidentObservation(ctx, "v1", 0.8)
		require.NoError(t, err)
		assert.Equal(t, "good", got.ID)

		_, err = s.LatestConfidentObservation(ctx, "v1", 0.99)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.LatestConfidentObservation(ctx, "nobody", 0.1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("PackagingUpsert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetPackaging(ctx, "v1")
		assert.ErrorIs(t, err, ErrNotFound)

		rec := model.PackagingRecord{
			VariantID: "v1", BoxLengthIn: 40, BoxWidthIn: 30, BoxHeightIn: 20, BoxWeightLb: 55,
			BoxesPerUnit: 1, ReconciledSource: model.SourceZyte, ReconciledConfLevel: 0.72, UpdatedAt: baseTime,
		}
		require.NoError(t, s.UpsertPackaging(ctx, rec))

		rec.BoxLengthIn = 44
		rec.ReconciledSource = model.SourceManual
		rec.ReconciledConfLevel = 0.95
		rec.UpdatedAt = baseTime.Add(time.Hour)
		require.NoError(t, s.UpsertPackaging(ctx, rec))

		got, err := s.GetPackaging(ctx, "v1")
		require.NoError(t, err)
		assert.InDelta(t, 44.0, got.BoxLengthIn, 0.001)
		assert.InDelta(t, 55.0, got.BoxWeightLb, 0.001)
		assert.Equal(t, model.SourceManual, got.ReconciledSource)
		assert.InDelta(t, 0.95, got.ReconciledConfLevel, 0.0001)
		assert.True(t, got.UpdatedAt.Equal(baseTime.Add(time.Hour)))
	})

	t.Run("CategoryPatterns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetCategoryPattern(ctx, "Sofas")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.UpsertCategoryPatterns(ctx, []model.CategoryPattern{
			{Category: "Sofas", AvgLengthIn: 80, MinLengthIn: 70, MaxLengthIn: 90, AvgWeightLb: 10, SampleCount: 2, UpdatedAt: baseTime},
			{Category: "Chairs", AvgLengthIn: 30, MinLengthIn: 30, MaxLengthIn: 30, AvgWeightLb: 10, SampleCount: 1, UpdatedAt: baseTime},
		}))
		require.NoError(t, s.UpsertCategoryPatterns(ctx, []model.CategoryPattern{
			{Category: "Sofas", AvgLengthIn: 85, MinLengthIn: 70, MaxLengthIn: 100, AvgWeightLb: 10, SampleCount: 3, UpdatedAt: baseTime},
		}))
		require.NoError(t, s.UpsertCategoryPatterns(ctx, nil))

		got, err := s.GetCategoryPattern(ctx, "Sofas")
		require.NoError(t, err)
		assert.InDelta(t, 85.0, got.AvgLengthIn, 0.001)
		assert.InDelta(t, 100.0, got.MaxLengthIn, 0.001)
		assert.Equal(t, 3, got.SampleCount)

		all, err := s.ListCategoryPatterns(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Chairs", all[0].Category)
		assert.Equal(t, "Sofas", all[1].Category)
	})

	t.Run("CatalogLookups", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetVariantBySKU(ctx, "SOFA-1")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.UpsertProduct(ctx, model.Product{
			ID: "p1", Title: "Cloud Sofa", Vendor: "Acme",
			Breadcrumbs: []string{"Home", "Living Room", "Sofas", "SKU-123"},
			Variants:    []model.Variant{{ID: "v1", SKU: "SOFA-1"}, {ID: "v2", SKU: "SOFA-2"}},
		}))
		require.NoError(t, s.UpsertProduct(ctx, model.Product{
			ID: "p2", Title: "Oak Chair", Breadcrumbs: []string{"Home", "Chairs"},
			Variants: []model.Variant{{ID: "v3", SKU: "CHAIR-1"}},
		}))
		require.NoError(t, s.UpsertPackaging(ctx, model.PackagingRecord{
			VariantID: "v1", BoxLengthIn: 90, BoxWidthIn: 40, BoxHeightIn: 36, BoxWeightLb: 120,
			BoxesPerUnit: 2, ReconciledSource: model.SourceManual, ReconciledConfLevel: 0.9, UpdatedAt: baseTime,
		}))

		v, err := s.GetVariantBySKU(ctx, "SOFA-1")
		require.NoError(t, err)
		assert.Equal(t, "v1", v.ID)
		assert.Equal(t, "p1", v.ProductID)
		assert.Equal(t, "Sofas", v.LeafCategory())

		products, err := s.ListProductsWithPackaging(ctx)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "p1", products[0].ID)
		assert.Equal(t, "Acme", products[0].Vendor)
		require.Len(t, products[0].Variants, 2)
		require.NotNil(t, products[0].Variants[0].Packaging)
		assert.Equal(t, 2, products[0].Variants[0].Packaging.BoxesPerUnit)
		assert.InDelta(t, 90.0, products[0].Variants[0].Packaging.BoxLengthIn, 0.001)
		assert.Nil(t, products[0].Variants[1].Packaging)
		assert.Equal(t, "Sofas", products[0].Variants[0].LeafCategory())
		assert.Equal(t, "Chairs", products[1].Variants[0].LeafCategory())
	})

	t.Run("UpsertProductUpdates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertProduct(ctx, model.Product{
			ID: "p1", Title: "Old", Breadcrumbs: []string{"Tables"},
			Variants: []model.Variant{{ID: "v1", SKU: "T-1"}},
		}))
		require.NoError(t, s.UpsertProduct(ctx, model.Product{
			ID: "p1", Title: "New", Breadcrumbs: []string{"Dining Tables"},
			Variants: []model.Variant{{ID: "v1", SKU: "T-1"}},
		}))

		v, err := s.GetVariantBySKU(ctx, "T-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"Dining Tables"}, v.Breadcrumbs)

		products, err := s.ListProductsWithPackaging(ctx)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "New", products[0].Title)
		assert.Len(t, products[0].Variants, 1)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestMemoryStore(t *testing.T) {
	storeTestSuite(t, newTestMemory)
}
