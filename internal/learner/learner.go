// Package learner rebuilds per-category packaging statistics from the
// catalog's reconciled packaging records.
package learner

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/dimfreight/internal/model"
)

// Placeholder weight range used when a category has no weight samples.
const (
	PlaceholderMinWeightLb = 10.0
	PlaceholderMaxWeightLb = 50.0
	PlaceholderAvgWeightLb = 30.0
)

// Store is the catalog access the learner needs.
type Store interface {
	ListProductsWithPackaging(ctx context.Context) ([]model.Product, error)
	UpsertCategoryPatterns(ctx context.Context, patterns []model.CategoryPattern) error
}

// Result reports a refresh run.
type Result struct {
	Success           bool          `json:"success"`
	CategoriesUpdated int           `json:"categories_updated"`
	Duration          time.Duration `json:"-"`
	DurationMS        int64         `json:"duration_ms"`
	Error             string        `json:"error,omitempty"`
}

// Learner computes category patterns. Runs must not overlap; callers
// serialize them.
type Learner struct {
	store Store
	now   func() time.Time
}

// New creates a Learner.
func New(s Store) *Learner {
	return &Learner{store: s, now: time.Now}
}

type samples struct {
	length, width, height, weight []float64
}

// Refresh recomputes every category with at least one complete packaging
// record and writes them in one batch. Any failure aborts the run before
// anything is written.
func (l *Learner) Refresh(ctx context.Context) Result {
	start := l.now()
	log := zap.L().With(zap.String("job", "category_patterns"))

	finish := func(res Result) Result {
		res.Duration = l.now().Sub(start)
		res.DurationMS = res.Duration.Milliseconds()
		if res.Success {
			log.Info("learner: refresh complete",
				zap.Int("categories_updated", res.CategoriesUpdated),
				zap.Duration("duration", res.Duration),
			)
		} else {
			log.Error("learner: refresh failed", zap.String("error", res.Error), zap.Duration("duration", res.Duration))
		}
		return res
	}

	products, err := l.store.ListProductsWithPackaging(ctx)
	if err != nil {
		return finish(Result{Error: err.Error()})
	}

	patterns := Compute(products, start.UTC())
	if err := ctx.Err(); err != nil {
		return finish(Result{Error: err.Error()})
	}
	if err := l.store.UpsertCategoryPatterns(ctx, patterns); err != nil {
		return finish(Result{Error: err.Error()})
	}
	return finish(Result{Success: true, CategoriesUpdated: len(patterns)})
}

// Compute groups complete packaging records by leaf category and returns
// one pattern per category, sorted by category.
func Compute(products []model.Product, at time.Time) []model.CategoryPattern {
	byCategory := make(map[string]*samples)
	for _, p := range products {
		category := model.LeafCategory(p.Breadcrumbs)
		if category == "" {
			continue
		}
		for _, v := range p.Variants {
			pk := v.Packaging
			if pk == nil || !pk.Complete() {
				continue
			}
			s, ok := byCategory[category]
			if !ok {
				s = &samples{}
				byCategory[category] = s
			}
			s.length = append(s.length, pk.BoxLengthIn)
			s.width = append(s.width, pk.BoxWidthIn)
			s.height = append(s.height, pk.BoxHeightIn)
			if pk.BoxWeightLb > 0 {
				s.weight = append(s.weight, pk.BoxWeightLb)
			}
		}
	}

	out := make([]model.CategoryPattern, 0, len(byCategory))
	for category, s := range byCategory {
		p := model.CategoryPattern{
			Category:    category,
			AvgLengthIn: stat.Mean(s.length, nil),
			MinLengthIn: floats.Min(s.length),
			MaxLengthIn: floats.Max(s.length),
			AvgWidthIn:  stat.Mean(s.width, nil),
			MinWidthIn:  floats.Min(s.width),
			MaxWidthIn:  floats.Max(s.width),
			AvgHeightIn: stat.Mean(s.height, nil),
			MinHeightIn: floats.Min(s.height),
			MaxHeightIn: floats.Max(s.height),
			AvgWeightLb: PlaceholderAvgWeightLb,
			MinWeightLb: PlaceholderMinWeightLb,
			MaxWeightLb: PlaceholderMaxWeightLb,
			SampleCount: len(s.length),
			UpdatedAt:   at,
		}
		if len(s.weight) > 0 {
			p.AvgWeightLb = stat.Mean(s.weight, nil)
			p.MinWeightLb = floats.Min(s.weight)
			p.MaxWeightLb = floats.Max(s.weight)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
