package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dimfreight/internal/db"
	"github.com/sells-group/dimfreight/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Ping checks the connection with a trivial query.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, db.PostgresSchema)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) InsertObservation(ctx context.Context, obs model.DimensionObservation) error {
	if obs.ID == "" {
		obs.ID = uuid.New().String()
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dimension_observations (`+observationCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		obs.ID, obs.VariantID, string(obs.Source), obs.LengthIn, obs.WidthIn, obs.HeightIn,
		obs.WeightLb, obs.BoxesPerUnit, obs.ConfidenceLevel, obs.ObservedAt,
	)
	return eris.Wrapf(err, "postgres: insert observation for %s", obs.VariantID)
}

func (s *PostgresStore) RecentObservations(ctx context.Context, variantID string, limit int) ([]model.DimensionObservation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+observationCols+` FROM dimension_observations WHERE variant_id = $1 ORDER BY observed_at DESC, id DESC LIMIT $2`,
		variantID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: recent observations for %s", variantID)
	}
	defer rows.Close()

	var out []model.DimensionObservation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan observation")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate observations")
}

func (s *PostgresStore) LatestConfidentObservation(ctx context.Context, variantID string, minConfidence float64) (*model.DimensionObservation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+observationCols+` FROM dimension_observations
		 WHERE variant_id = $1 AND confidence_level >= $2 AND length_in > 0 AND width_in > 0 AND height_in > 0
		 ORDER BY observed_at DESC, id DESC LIMIT 1`,
		variantID, minConfidence,
	)
	o, err := scanObservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest observation for %s", variantID)
	}
	return &o, nil
}

func (s *PostgresStore) GetPackaging(ctx context.Context, variantID string) (*model.PackagingRecord, error) {
	var p model.PackagingRecord
	var src string
	err := s.pool.QueryRow(ctx,
		`SELECT variant_id, box_length_in, box_width_in, box_height_in, box_weight_lb, boxes_per_unit, reconciled_source, reconciled_conf_level, updated_at
		 FROM packaging WHERE variant_id = $1`,
		variantID,
	).Scan(&p.VariantID, &p.BoxLengthIn, &p.BoxWidthIn, &p.BoxHeightIn, &p.BoxWeightLb,
		&p.BoxesPerUnit, &src, &p.ReconciledConfLevel, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get packaging %s", variantID)
	}
	p.ReconciledSource = model.Source(src)
	return &p, nil
}

func (s *PostgresStore) UpsertPackaging(ctx context.Context, rec model.PackagingRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO packaging (variant_id, box_length_in, box_width_in, box_height_in, box_weight_lb, boxes_per_unit, reconciled_source, reconciled_conf_level, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (variant_id) DO UPDATE SET
			box_length_in = EXCLUDED.box_length_in,
			box_width_in = EXCLUDED.box_width_in,
			box_height_in = EXCLUDED.box_height_in,
			box_weight_lb = EXCLUDED.box_weight_lb,
			boxes_per_unit = EXCLUDED.boxes_per_unit,
			reconciled_source = EXCLUDED.reconciled_source,
			reconciled_conf_level = EXCLUDED.reconciled_conf_level,
			updated_at = EXCLUDED.updated_at`,
		rec.VariantID, rec.BoxLengthIn, rec.BoxWidthIn, rec.BoxHeightIn, rec.BoxWeightLb,
		rec.BoxesPerUnit, string(rec.ReconciledSource), rec.ReconciledConfLevel, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert packaging %s", rec.VariantID)
}

// patternColumns is the category_patterns column order used by every
// pattern read and write.
var patternColumns = []string{
	"category",
	"avg_length_in", "min_length_in", "max_length_in",
	"avg_width_in", "min_width_in", "max_width_in",
	"avg_height_in", "min_height_in", "max_height_in",
	"avg_weight_lb", "min_weight_lb", "max_weight_lb",
	"sample_count", "updated_at",
}

func (s *PostgresStore) GetCategoryPattern(ctx context.Context, category string) (*model.CategoryPattern, error) {
	p, err := scanPattern(s.pool.QueryRow(ctx, patternSelect+` WHERE category = $1`, category))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get pattern %s", category)
	}
	return &p, nil
}

func (s *PostgresStore) ListCategoryPatterns(ctx context.Context) ([]model.CategoryPattern, error) {
	rows, err := s.pool.Query(ctx, patternSelect+` ORDER BY category`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list patterns")
	}
	defer rows.Close()

	var out []model.CategoryPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan pattern")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate patterns")
}

// UpsertCategoryPatterns goes through db.BulkUpsert, so the batch lands in a
// single transaction.
func (s *PostgresStore) UpsertCategoryPatterns(ctx context.Context, patterns []model.CategoryPattern) error {
	if len(patterns) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([][]any, len(patterns))
	for i, p := range patterns {
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		rows[i] = patternRow(p)
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "category_patterns",
		Columns:      patternColumns,
		ConflictKeys: []string{"category"},
	}, rows)
	return eris.Wrap(err, "postgres: upsert patterns")
}

func (s *PostgresStore) GetVariantBySKU(ctx context.Context, sku string) (*model.Variant, error) {
	var v model.Variant
	var crumbs []byte
	err := s.pool.QueryRow(ctx,
		`SELECT v.id, v.product_id, v.sku, p.breadcrumbs
		 FROM variants v JOIN products p ON p.id = v.product_id
		 WHERE v.sku = $1`,
		sku,
	).Scan(&v.ID, &v.ProductID, &v.SKU, &crumbs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get variant %s", sku)
	}
	if err := json.Unmarshal(crumbs, &v.Breadcrumbs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal breadcrumbs")
	}
	return &v, nil
}

func (s *PostgresStore) ListProductsWithPackaging(ctx context.Context) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, vendor, breadcrumbs FROM products ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	var products []model.Product
	for rows.Next() {
		var p model.Product
		var crumbs []byte
		if err := rows.Scan(&p.ID, &p.Title, &p.Vendor, &crumbs); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		if err := json.Unmarshal(crumbs, &p.Breadcrumbs); err != nil {
			rows.Close()
			return nil, eris.Wrapf(err, "postgres: unmarshal breadcrumbs for %s", p.ID)
		}
		products = append(products, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate products")
	}

	vrows, err := s.pool.Query(ctx, variantPackagingSelect)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list variants")
	}
	defer vrows.Close()

	var variants []model.Variant
	for vrows.Next() {
		v, err := scanVariantPackaging(vrows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan variant")
		}
		variants = append(variants, v)
	}
	if err := vrows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate variants")
	}
	return attachVariants(products, variants), nil
}

func (s *PostgresStore) UpsertProduct(ctx context.Context, p model.Product) error {
	crumbs, err := marshalCrumbs(p.Breadcrumbs)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin product tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO products (id, title, vendor, breadcrumbs, updated_at) VALUES ($1, $2, $3, $4::jsonb, now())
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, vendor = EXCLUDED.vendor,
			breadcrumbs = EXCLUDED.breadcrumbs, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Title, p.Vendor, crumbs,
	); err != nil {
		return eris.Wrapf(err, "postgres: upsert product %s", p.ID)
	}
	for _, v := range p.Variants {
		if _, err := tx.Exec(ctx,
			`INSERT INTO variants (id, product_id, sku) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET product_id = EXCLUDED.product_id, sku = EXCLUDED.sku`,
			v.ID, p.ID, v.SKU,
		); err != nil {
			return eris.Wrapf(err, "postgres: upsert variant %s", v.ID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit product tx")
}
