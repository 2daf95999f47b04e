package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/dimfreight/internal/model"
)

// MemoryStore implements Store in process memory. It backs tests and the
// "memory" driver; nothing survives Close.
type MemoryStore struct {
	mu           sync.RWMutex
	observations map[string][]model.DimensionObservation
	packaging    map[string]model.PackagingRecord
	patterns     map[string]model.CategoryPattern
	products     map[string]model.Product
	skus         map[string]string // sku -> variant id
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		observations: make(map[string][]model.DimensionObservation),
		packaging:    make(map[string]model.PackagingRecord),
		patterns:     make(map[string]model.CategoryPattern),
		products:     make(map[string]model.Product),
		skus:         make(map[string]string),
	}
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) InsertObservation(_ context.Context, obs model.DimensionObservation) error {
	if obs.ID == "" {
		obs.ID = uuid.New().String()
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now().UTC()
	}
	if obs.WeightLb != nil {
		w := *obs.WeightLb
		obs.WeightLb = &w
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations[obs.VariantID] = append(m.observations[obs.VariantID], obs)
	return nil
}

// newestFirst returns a sorted copy of the variant's observations.
func (m *MemoryStore) newestFirst(variantID string) []model.DimensionObservation {
	obs := slices.Clone(m.observations[variantID])
	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].ObservedAt.Equal(obs[j].ObservedAt) {
			return obs[i].ID > obs[j].ID
		}
		return obs[i].ObservedAt.After(obs[j].ObservedAt)
	})
	return obs
}

func (m *MemoryStore) RecentObservations(_ context.Context, variantID string, limit int) ([]model.DimensionObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obs := m.newestFirst(variantID)
	if limit >= 0 && len(obs) > limit {
		obs = obs[:limit]
	}
	return obs, nil
}

func (m *MemoryStore) LatestConfidentObservation(_ context.Context, variantID string, minConfidence float64) (*model.DimensionObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.newestFirst(variantID) {
		if o.ConfidenceLevel >= minConfidence && o.Complete() {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetPackaging(_ context.Context, variantID string) (*model.PackagingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packaging[variantID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) UpsertPackaging(_ context.Context, rec model.PackagingRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packaging[rec.VariantID] = rec
	return nil
}

func (m *MemoryStore) GetCategoryPattern(_ context.Context, category string) (*model.CategoryPattern, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patterns[category]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListCategoryPatterns(_ context.Context) ([]model.CategoryPattern, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.CategoryPattern, 0, len(m.patterns))
	for _, p := range m.patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *MemoryStore) UpsertCategoryPatterns(_ context.Context, patterns []model.CategoryPattern) error {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range patterns {
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		m.patterns[p.Category] = p
	}
	return nil
}

func (m *MemoryStore) GetVariantBySKU(_ context.Context, sku string) (*model.Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.skus[sku]
	if !ok {
		return nil, ErrNotFound
	}
	for _, p := range m.products {
		for _, v := range p.Variants {
			if v.ID == id {
				v.Breadcrumbs = slices.Clone(p.Breadcrumbs)
				v.Packaging = nil
				return &v, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListProductsWithPackaging(_ context.Context) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Product, 0, len(m.products))
	for _, p := range m.products {
		cp := p
		cp.Breadcrumbs = slices.Clone(p.Breadcrumbs)
		cp.Variants = make([]model.Variant, 0, len(p.Variants))
		for _, v := range p.Variants {
			v.Breadcrumbs = cp.Breadcrumbs
			v.Packaging = nil
			if rec, ok := m.packaging[v.ID]; ok {
				v.Packaging = &rec
			}
			cp.Variants = append(cp.Variants, v)
		}
		sort.Slice(cp.Variants, func(i, j int) bool { return cp.Variants[i].ID < cp.Variants[j].ID })
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpsertProduct merges variants by ID, matching the SQL backends where
// variants absent from p are left in place.
func (m *MemoryStore) UpsertProduct(_ context.Context, p model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.products[p.ID]
	merged := model.Product{
		ID:          p.ID,
		Title:       p.Title,
		Vendor:      p.Vendor,
		Breadcrumbs: slices.Clone(p.Breadcrumbs),
		Variants:    slices.Clone(existing.Variants),
	}
	for _, v := range p.Variants {
		v.ProductID = p.ID
		v.Packaging = nil
		v.Breadcrumbs = nil
		if i := slices.IndexFunc(merged.Variants, func(x model.Variant) bool { return x.ID == v.ID }); i >= 0 {
			delete(m.skus, merged.Variants[i].SKU)
			merged.Variants[i] = v
		} else {
			merged.Variants = append(merged.Variants, v)
		}
		m.skus[v.SKU] = v.ID
	}
	m.products[p.ID] = merged
	return nil
}
