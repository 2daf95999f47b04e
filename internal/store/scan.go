package store

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dimfreight/internal/model"
)

const observationCols = `id, variant_id, source, length_in, width_in, height_in, weight_lb, boxes_per_unit, confidence_level, observed_at`

const patternSelect = `SELECT category, avg_length_in, min_length_in, max_length_in, avg_width_in, min_width_in, max_width_in,
	avg_height_in, min_height_in, max_height_in, avg_weight_lb, min_weight_lb, max_weight_lb, sample_count, updated_at
	FROM category_patterns`

// scannable is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanObservation(row scannable) (model.DimensionObservation, error) {
	var o model.DimensionObservation
	var src string
	err := row.Scan(&o.ID, &o.VariantID, &src, &o.LengthIn, &o.WidthIn, &o.HeightIn,
		&o.WeightLb, &o.BoxesPerUnit, &o.ConfidenceLevel, &o.ObservedAt)
	o.Source = model.Source(src)
	return o, err
}

func scanPattern(row scannable) (model.CategoryPattern, error) {
	var p model.CategoryPattern
	err := row.Scan(&p.Category,
		&p.AvgLengthIn, &p.MinLengthIn, &p.MaxLengthIn,
		&p.AvgWidthIn, &p.MinWidthIn, &p.MaxWidthIn,
		&p.AvgHeightIn, &p.MinHeightIn, &p.MaxHeightIn,
		&p.AvgWeightLb, &p.MinWeightLb, &p.MaxWeightLb,
		&p.SampleCount, &p.UpdatedAt)
	return p, err
}

// patternRow flattens p in patternColumns order.
func patternRow(p model.CategoryPattern) []any {
	return []any{
		p.Category,
		p.AvgLengthIn, p.MinLengthIn, p.MaxLengthIn,
		p.AvgWidthIn, p.MinWidthIn, p.MaxWidthIn,
		p.AvgHeightIn, p.MinHeightIn, p.MaxHeightIn,
		p.AvgWeightLb, p.MinWeightLb, p.MaxWeightLb,
		p.SampleCount, p.UpdatedAt,
	}
}

// variantPackagingSelect uses no placeholders, so both backends share it.
const variantPackagingSelect = `SELECT v.id, v.product_id, v.sku,
	pk.box_length_in, pk.box_width_in, pk.box_height_in, pk.box_weight_lb,
	pk.boxes_per_unit, pk.reconciled_source, pk.reconciled_conf_level, pk.updated_at
	FROM variants v LEFT JOIN packaging pk ON pk.variant_id = v.id
	ORDER BY v.product_id, v.id`

func scanVariantPackaging(row scannable) (model.Variant, error) {
	var v model.Variant
	var (
		length, width, height, weight, conf *float64
		boxes                               *int
		src                                 *string
		updated                             *time.Time
	)
	if err := row.Scan(&v.ID, &v.ProductID, &v.SKU,
		&length, &width, &height, &weight, &boxes, &src, &conf, &updated); err != nil {
		return v, err
	}
	if length == nil {
		return v, nil
	}
	v.Packaging = &model.PackagingRecord{
		VariantID:   v.ID,
		BoxLengthIn: *length,
		BoxWidthIn:  deref(width),
		BoxHeightIn: deref(height),
		BoxWeightLb: deref(weight),
	}
	if boxes != nil {
		v.Packaging.BoxesPerUnit = *boxes
	}
	if src != nil {
		v.Packaging.ReconciledSource = model.Source(*src)
	}
	v.Packaging.ReconciledConfLevel = deref(conf)
	if updated != nil {
		v.Packaging.UpdatedAt = *updated
	}
	return v, nil
}

// attachVariants groups variants under their products, copying each
// product's breadcrumbs onto its variants. Products keep their order.
func attachVariants(products []model.Product, variants []model.Variant) []model.Product {
	idx := make(map[string]int, len(products))
	for i, p := range products {
		idx[p.ID] = i
	}
	for _, v := range variants {
		i, ok := idx[v.ProductID]
		if !ok {
			continue
		}
		v.Breadcrumbs = products[i].Breadcrumbs
		products[i].Variants = append(products[i].Variants, v)
	}
	return products
}

func marshalCrumbs(crumbs []string) (string, error) {
	if crumbs == nil {
		crumbs = []string{}
	}
	b, err := json.Marshal(crumbs)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal breadcrumbs")
	}
	return string(b), nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
