// Package store persists observations, packaging records, category patterns
// and the catalog read model. Postgres, SQLite and in-memory backends share
// one contract.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dimfreight/internal/model"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = eris.New("store: not found")

// ObservationStore is the append-only dimension_observations table.
type ObservationStore interface {
	InsertObservation(ctx context.Context, obs model.DimensionObservation) error
	// RecentObservations returns up to limit observations, newest first.
	RecentObservations(ctx context.Context, variantID string, limit int) ([]model.DimensionObservation, error)
	// LatestConfidentObservation returns the newest complete observation
	// whose confidence is at least minConfidence, or ErrNotFound.
	LatestConfidentObservation(ctx context.Context, variantID string, minConfidence float64) (*model.DimensionObservation, error)
}

// PackagingStore holds one reconciled record per variant.
type PackagingStore interface {
	GetPackaging(ctx context.Context, variantID string) (*model.PackagingRecord, error)
	UpsertPackaging(ctx context.Context, rec model.PackagingRecord) error
}

// PatternStore holds learned per-category statistics.
type PatternStore interface {
	GetCategoryPattern(ctx context.Context, category string) (*model.CategoryPattern, error)
	ListCategoryPatterns(ctx context.Context) ([]model.CategoryPattern, error)
	// UpsertCategoryPatterns writes every pattern in one transaction.
	UpsertCategoryPatterns(ctx context.Context, patterns []model.CategoryPattern) error
}

// CatalogStore is the product/variant read model.
type CatalogStore interface {
	// GetVariantBySKU returns the variant with its product's breadcrumbs, or
	// ErrNotFound.
	GetVariantBySKU(ctx context.Context, sku string) (*model.Variant, error)
	// ListProductsWithPackaging returns every product with its variants and
	// each variant's packaging record, if any.
	ListProductsWithPackaging(ctx context.Context) ([]model.Product, error)
	UpsertProduct(ctx context.Context, p model.Product) error
}

// Store is the full persistence contract.
type Store interface {
	ObservationStore
	PackagingStore
	PatternStore
	CatalogStore

	Migrate(ctx context.Context) error
	Close() error
}
