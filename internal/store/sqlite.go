package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dimfreight/internal/db"
	"github.com/sells-group/dimfreight/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn}, nil
}

// Migrate applies the embedded golang-migrate migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	return eris.Wrap(db.MigrateSQLite(s.db), "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertObservation(ctx context.Context, obs model.DimensionObservation) error {
	if obs.ID == "" {
		obs.ID = uuid.New().String()
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dimension_observations (`+observationCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.ID, obs.VariantID, string(obs.Source), obs.LengthIn, obs.WidthIn, obs.HeightIn,
		obs.WeightLb, obs.BoxesPerUnit, obs.ConfidenceLevel, obs.ObservedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert observation for %s", obs.VariantID)
}

func (s *SQLiteStore) RecentObservations(ctx context.Context, variantID string, limit int) ([]model.DimensionObservation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+observationCols+` FROM dimension_observations WHERE variant_id = ? ORDER BY observed_at DESC, id DESC LIMIT ?`,
		variantID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: recent observations for %s", variantID)
	}
	defer rows.Close()

	var out []model.DimensionObservation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan observation")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate observations")
}

func (s *SQLiteStore) LatestConfidentObservation(ctx context.Context, variantID string, minConfidence float64) (*model.DimensionObservation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+observationCols+` FROM dimension_observations
		 WHERE variant_id = ? AND confidence_level >= ? AND length_in > 0 AND width_in > 0 AND height_in > 0
		 ORDER BY observed_at DESC, id DESC LIMIT 1`,
		variantID, minConfidence,
	)
	o, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest observation for %s", variantID)
	}
	return &o, nil
}

func (s *SQLiteStore) GetPackaging(ctx context.Context, variantID string) (*model.PackagingRecord, error) {
	var p model.PackagingRecord
	var src string
	err := s.db.QueryRowContext(ctx,
		`SELECT variant_id, box_length_in, box_width_in, box_height_in, box_weight_lb, boxes_per_unit, reconciled_source, reconciled_conf_level, updated_at
		 FROM packaging WHERE variant_id = ?`,
		variantID,
	).Scan(&p.VariantID, &p.BoxLengthIn, &p.BoxWidthIn, &p.BoxHeightIn, &p.BoxWeightLb,
		&p.BoxesPerUnit, &src, &p.ReconciledConfLevel, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get packaging %s", variantID)
	}
	p.ReconciledSource = model.Source(src)
	return &p, nil
}

func (s *SQLiteStore) UpsertPackaging(ctx context.Context, rec model.PackagingRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO packaging (variant_id, box_length_in, box_width_in, box_height_in, box_weight_lb, boxes_per_unit, reconciled_source, reconciled_conf_level, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (variant_id) DO UPDATE SET
			box_length_in = excluded.box_length_in,
			box_width_in = excluded.box_width_in,
			box_height_in = excluded.box_height_in,
			box_weight_lb = excluded.box_weight_lb,
			boxes_per_unit = excluded.boxes_per_unit,
			reconciled_source = excluded.reconciled_source,
			reconciled_conf_level = excluded.reconciled_conf_level,
			updated_at = excluded.updated_at`,
		rec.VariantID, rec.BoxLengthIn, rec.BoxWidthIn, rec.BoxHeightIn, rec.BoxWeightLb,
		rec.BoxesPerUnit, string(rec.ReconciledSource), rec.ReconciledConfLevel, rec.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert packaging %s", rec.VariantID)
}

func (s *SQLiteStore) GetCategoryPattern(ctx context.Context, category string) (*model.CategoryPattern, error) {
	p, err := scanPattern(s.db.QueryRowContext(ctx, patternSelect+` WHERE category = ?`, category))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get pattern %s", category)
	}
	return &p, nil
}

func (s *SQLiteStore) ListCategoryPatterns(ctx context.Context) ([]model.CategoryPattern, error) {
	rows, err := s.db.QueryContext(ctx, patternSelect+` ORDER BY category`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list patterns")
	}
	defer rows.Close()

	var out []model.CategoryPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pattern")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate patterns")
}

func (s *SQLiteStore) UpsertCategoryPatterns(ctx context.Context, patterns []model.CategoryPattern) error {
	if len(patterns) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin pattern tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO category_patterns (category, avg_length_in, min_length_in, max_length_in, avg_width_in, min_width_in, max_width_in,
			avg_height_in, min_height_in, max_height_in, avg_weight_lb, min_weight_lb, max_weight_lb, sample_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (category) DO UPDATE SET
			avg_length_in = excluded.avg_length_in, min_length_in = excluded.min_length_in, max_length_in = excluded.max_length_in,
			avg_width_in = excluded.avg_width_in, min_width_in = excluded.min_width_in, max_width_in = excluded.max_width_in,
			avg_height_in = excluded.avg_height_in, min_height_in = excluded.min_height_in, max_height_in = excluded.max_height_in,
			avg_weight_lb = excluded.avg_weight_lb, min_weight_lb = excluded.min_weight_lb, max_weight_lb = excluded.max_weight_lb,
			sample_count = excluded.sample_count, updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare pattern upsert")
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range patterns {
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		p.UpdatedAt = p.UpdatedAt.UTC()
		if _, err := stmt.ExecContext(ctx, patternRow(p)...); err != nil {
			return eris.Wrapf(err, "sqlite: upsert pattern %s", p.Category)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit pattern tx")
}

func (s *SQLiteStore) GetVariantBySKU(ctx context.Context, sku string) (*model.Variant, error) {
	var v model.Variant
	var crumbs string
	err := s.db.QueryRowContext(ctx,
		`SELECT v.id, v.product_id, v.sku, p.breadcrumbs
		 FROM variants v JOIN products p ON p.id = v.product_id
		 WHERE v.sku = ?`,
		sku,
	).Scan(&v.ID, &v.ProductID, &v.SKU, &crumbs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get variant %s", sku)
	}
	if err := json.Unmarshal([]byte(crumbs), &v.Breadcrumbs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal breadcrumbs")
	}
	return &v, nil
}

func (s *SQLiteStore) ListProductsWithPackaging(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, vendor, breadcrumbs FROM products ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list products")
	}
	var products []model.Product
	for rows.Next() {
		var p model.Product
		var crumbs string
		if err := rows.Scan(&p.ID, &p.Title, &p.Vendor, &crumbs); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		if err := json.Unmarshal([]byte(crumbs), &p.Breadcrumbs); err != nil {
			rows.Close()
			return nil, eris.Wrapf(err, "sqlite: unmarshal breadcrumbs for %s", p.ID)
		}
		products = append(products, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate products")
	}

	vrows, err := s.db.QueryContext(ctx, variantPackagingSelect)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list variants")
	}
	defer vrows.Close()

	var variants []model.Variant
	for vrows.Next() {
		v, err := scanVariantPackaging(vrows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan variant")
		}
		variants = append(variants, v)
	}
	if err := vrows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate variants")
	}
	return attachVariants(products, variants), nil
}

func (s *SQLiteStore) UpsertProduct(ctx context.Context, p model.Product) error {
	crumbs, err := marshalCrumbs(p.Breadcrumbs)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin product tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO products (id, title, vendor, breadcrumbs, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET title = excluded.title, vendor = excluded.vendor,
			breadcrumbs = excluded.breadcrumbs, updated_at = excluded.updated_at`,
		p.ID, p.Title, p.Vendor, crumbs, time.Now().UTC(),
	); err != nil {
		return eris.Wrapf(err, "sqlite: upsert product %s", p.ID)
	}
	for _, v := range p.Variants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO variants (id, product_id, sku) VALUES (?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET product_id = excluded.product_id, sku = excluded.sku`,
			v.ID, p.ID, v.SKU,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert variant %s", v.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit product tx")
}
