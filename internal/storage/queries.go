package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"pricewatch/internal"
)

// Queries is a repository handle bound to either the connection or one
// transaction; the matching engine only ever sees the transactional one.
type Queries struct {
	ext sqlx.ExtContext
}

// UpsertProduct inserts a product or refreshes it by SKU. The SKU is the
// immutable identity and is never rewritten.
func (q *Queries) UpsertProduct(ctx context.Context, p internal.Product) error {
	_, err := q.ext.ExecContext(ctx, `
INSERT INTO product (sku, name, brand, category, subject, quality, display_type, in_frame, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(sku) DO UPDATE SET
  name=excluded.name,
  brand=excluded.brand,
  category=excluded.category,
  subject=excluded.subject,
  quality=excluded.quality,
  display_type=excluded.display_type,
  in_frame=excluded.in_frame,
  is_active=excluded.is_active
`, p.SKU, p.Name, p.Brand, p.Category, p.Subject, p.Quality, p.DisplayType, p.InFrame, p.IsActive)
	return err
}

func (q *Queries) ListActiveProducts(ctx context.Context) ([]internal.Product, error) {
	var out []internal.Product
	err := sqlx.SelectContext(ctx, q.ext, &out, `
SELECT id, sku, name, brand, category, subject, quality, display_type, in_frame, is_active
FROM product WHERE is_active = 1`)
	return out, err
}

func (q *Queries) GetProduct(ctx context.Context, id int64) (*internal.Product, error) {
	var p internal.Product
	err := sqlx.GetContext(ctx, q.ext, &p, `
SELECT id, sku, name, brand, category, subject, quality, display_type, in_frame, is_active
FROM product WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertRecord stores one ingested row; re-ingesting the same
// (source, file_date, row_index) is a no-op. Reports whether a row was stored.
func (q *Queries) InsertRecord(ctx context.Context, rec internal.CompetitorRecord) (bool, error) {
	res, err := q.ext.ExecContext(ctx, `
INSERT INTO competitor_record (source, file_date, row_index, group_name, sku, name, price_opt, price_roz, link, in_stock, amount, observed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source, file_date, row_index) DO NOTHING
`, rec.Source, rec.FileDate, rec.RowIndex, rec.GroupName, rec.SKU, rec.Name, rec.PriceOpt, rec.PriceRoz, rec.Link, rec.InStock, rec.Amount, rec.ObservedAt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListRecordsSince returns the records with a file date at or after since,
// optionally restricted to the named sources.
func (q *Queries) ListRecordsSince(ctx context.Context, since time.Time, sources []string) ([]internal.CompetitorRecord, error) {
	query := `
SELECT id, source, file_date, row_index, group_name, sku, name, price_opt, price_roz, link, in_stock, amount, observed_at
FROM competitor_record WHERE file_date >= ?`
	args := []any{since}
	if len(sources) > 0 {
		in, inArgs, err := sqlx.In(` AND source IN (?)`, sources)
		if err != nil {
			return nil, err
		}
		query += in
		args = append(args, inArgs...)
	}
	query += ` ORDER BY id`

	var out []internal.CompetitorRecord
	err := sqlx.SelectContext(ctx, q.ext, &out, query, args...)
	return out, err
}

// EnsureCompetitor returns the competitor with the given source name,
// creating it on first encounter.
func (q *Queries) EnsureCompetitor(ctx context.Context, name string) (internal.Competitor, error) {
	var c internal.Competitor
	err := sqlx.GetContext(ctx, q.ext, &c, `SELECT id, name, is_active FROM competitor WHERE name = ?`, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return internal.Competitor{}, err
	}

	res, err := q.ext.ExecContext(ctx, `INSERT INTO competitor (name) VALUES (?)`, name)
	if err != nil {
		return internal.Competitor{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return internal.Competitor{}, err
	}
	return internal.Competitor{ID: id, Name: name, IsActive: true}, nil
}

func (q *Queries) PriceExists(ctx context.Context, productID, competitorID int64, collectedAt time.Time) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q.ext, &count, `
SELECT COUNT(1) FROM competitor_price
WHERE product_id = ? AND competitor_id = ? AND collected_at = ?`, productID, competitorID, collectedAt)
	return count > 0, err
}

func (q *Queries) InsertPrice(ctx context.Context, p internal.CompetitorPrice) error {
	_, err := q.ext.ExecContext(ctx, `
INSERT INTO competitor_price (product_id, competitor_id, price, in_stock, collected_at)
VALUES (?, ?, ?, ?, ?)`, p.ProductID, p.CompetitorID, p.Price, p.InStock, p.CollectedAt)
	return err
}

// MinRecentPrice returns the lowest competitor price observed for a product
// since the given time; nil when no observation exists. This is the surface
// the pricing engine reads.
func (q *Queries) MinRecentPrice(ctx context.Context, productID int64, since time.Time) (*float64, error) {
	var min sql.NullFloat64
	err := sqlx.GetContext(ctx, q.ext, &min, `
SELECT MIN(price) FROM competitor_price WHERE product_id = ? AND collected_at >= ?`, productID, since)
	if err != nil {
		return nil, err
	}
	if !min.Valid {
		return nil, nil
	}
	return &min.Float64, nil
}

func (q *Queries) GetMatch(ctx context.Context, productID, competitorID int64) (*internal.ProductMatch, error) {
	var m internal.ProductMatch
	err := sqlx.GetContext(ctx, q.ext, &m, `
SELECT id, product_id, competitor_id, competitor_sku, confidence, is_manual, phone_model_id, quality
FROM product_match WHERE product_id = ? AND competitor_id = ?`, productID, competitorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (q *Queries) InsertMatch(ctx context.Context, m internal.ProductMatch) error {
	_, err := q.ext.ExecContext(ctx, `
INSERT INTO product_match (product_id, competitor_id, competitor_sku, confidence, is_manual, phone_model_id, quality)
VALUES (?, ?, ?, ?, ?, ?, ?)`, m.ProductID, m.CompetitorID, m.CompetitorSKU, m.Confidence, m.IsManual, m.PhoneModelID, m.Quality)
	return err
}

func (q *Queries) UpdateMatch(ctx context.Context, m internal.ProductMatch) error {
	_, err := q.ext.ExecContext(ctx, `
UPDATE product_match SET competitor_sku = ?, confidence = ?, is_manual = ?, phone_model_id = ?, quality = ?
WHERE id = ?`, m.CompetitorSKU, m.Confidence, m.IsManual, m.PhoneModelID, m.Quality, m.ID)
	return err
}

func (q *Queries) GetPhoneModel(ctx context.Context, id int64) (*internal.PhoneModel, error) {
	var pm internal.PhoneModel
	err := sqlx.GetContext(ctx, q.ext, &pm, `
SELECT id, brand, model_name, variant FROM phone_model WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

// FindPhoneModel looks up the exact (brand, model, variant) identity; a nil
// variant matches only the variantless row.
func (q *Queries) FindPhoneModel(ctx context.Context, brand, modelName string, variant *string) (*internal.PhoneModel, error) {
	var pm internal.PhoneModel
	var err error
	if variant == nil {
		err = sqlx.GetContext(ctx, q.ext, &pm, `
SELECT id, brand, model_name, variant FROM phone_model
WHERE brand = ? AND model_name = ? AND variant IS NULL`, brand, modelName)
	} else {
		err = sqlx.GetContext(ctx, q.ext, &pm, `
SELECT id, brand, model_name, variant FROM phone_model
WHERE brand = ? AND model_name = ? AND variant = ?`, brand, modelName, *variant)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

// FindPhoneModelByBrandModel returns the first phone model for the pair
// regardless of variant; override rows pin brand+model without one.
func (q *Queries) FindPhoneModelByBrandModel(ctx context.Context, brand, modelName string) (*internal.PhoneModel, error) {
	var pm internal.PhoneModel
	err := sqlx.GetContext(ctx, q.ext, &pm, `
SELECT id, brand, model_name, variant FROM phone_model
WHERE brand = ? AND model_name = ? ORDER BY id LIMIT 1`, brand, modelName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

func (q *Queries) CreatePhoneModel(ctx context.Context, brand, modelName string, variant *string) (internal.PhoneModel, error) {
	res, err := q.ext.ExecContext(ctx, `
INSERT INTO phone_model (brand, model_name, variant) VALUES (?, ?, ?)`, brand, modelName, variant)
	if err != nil {
		return internal.PhoneModel{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return internal.PhoneModel{}, err
	}
	return internal.PhoneModel{ID: id, Brand: brand, ModelName: modelName, Variant: variant}, nil
}

// ListOverrides returns the manually curated overrides, optionally restricted
// to the named sources.
func (q *Queries) ListOverrides(ctx context.Context, sources []string) ([]internal.MatchOverride, error) {
	query := `
SELECT id, competitor_source, competitor_sku, brand, model, variant, product_id, phone_model_id, quality, note, created_at, created_by
FROM product_match_override`
	var args []any
	if len(sources) > 0 {
		in, inArgs, err := sqlx.In(` WHERE competitor_source IN (?)`, sources)
		if err != nil {
			return nil, err
		}
		query += in
		args = inArgs
	}

	var out []internal.MatchOverride
	err := sqlx.SelectContext(ctx, q.ext, &out, query, args...)
	return out, err
}

func (q *Queries) InsertOverride(ctx context.Context, ov internal.MatchOverride) error {
	if ov.CreatedAt.IsZero() {
		ov.CreatedAt = time.Now().UTC()
	}
	_, err := q.ext.ExecContext(ctx, `
INSERT INTO product_match_override (competitor_source, competitor_sku, brand, model, variant, product_id, phone_model_id, quality, note, created_at, created_by)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ov.CompetitorSource, ov.CompetitorSKU, ov.Brand, ov.Model, ov.Variant, ov.ProductID, ov.PhoneModelID, ov.Quality, ov.Note, ov.CreatedAt, ov.CreatedBy)
	return err
}

func (q *Queries) InsertMatchRun(ctx context.Context, traceID string, statsJSON []byte) error {
	_, err := q.ext.ExecContext(ctx, `
INSERT INTO match_run (trace_id, stats_json, created_at) VALUES (?, ?, ?)`, traceID, string(statsJSON), time.Now().UTC())
	return err
}
