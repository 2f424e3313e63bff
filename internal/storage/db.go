// Package storage persists the catalog, ingested competitor records and the
// matching engine's outputs in sqlite. All repositories return plain records
// keyed by id; joins are explicit queries, never lazy graphs.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sqlx.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// Queries returns a non-transactional query handle.
func (d *DB) Queries() *Queries {
	return &Queries{ext: d.conn}
}

// InTx runs fn inside one transaction. Any error rolls back everything fn
// staged; a matching run commits all of its writes together or none of them.
func (d *DB) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := d.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Queries{ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS product (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  brand TEXT,
  category TEXT,
  subject TEXT,
  quality TEXT,
  display_type TEXT,
  in_frame TEXT,
  is_active INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_product_sku ON product(sku);

CREATE TABLE IF NOT EXISTS competitor (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS competitor_record (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  file_date TIMESTAMP NOT NULL,
  row_index INTEGER NOT NULL,
  group_name TEXT,
  sku TEXT NOT NULL DEFAULT '',
  name TEXT,
  price_opt REAL,
  price_roz REAL,
  link TEXT,
  in_stock INTEGER NOT NULL DEFAULT 1,
  amount INTEGER,
  observed_at TIMESTAMP NOT NULL,
  UNIQUE(source, file_date, row_index)
);
CREATE INDEX IF NOT EXISTS idx_competitor_record_file_date ON competitor_record(file_date);
CREATE INDEX IF NOT EXISTS idx_competitor_record_source ON competitor_record(source);

CREATE TABLE IF NOT EXISTS phone_model (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  brand TEXT NOT NULL,
  model_name TEXT NOT NULL,
  variant TEXT,
  UNIQUE(brand, model_name, variant)
);

CREATE TABLE IF NOT EXISTS competitor_price (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id INTEGER NOT NULL REFERENCES product(id),
  competitor_id INTEGER NOT NULL REFERENCES competitor(id),
  price REAL NOT NULL,
  in_stock INTEGER NOT NULL DEFAULT 1,
  collected_at TIMESTAMP NOT NULL,
  UNIQUE(product_id, competitor_id, collected_at)
);
CREATE INDEX IF NOT EXISTS idx_competitor_price_product ON competitor_price(product_id);

CREATE TABLE IF NOT EXISTS product_match (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id INTEGER NOT NULL REFERENCES product(id),
  competitor_id INTEGER NOT NULL REFERENCES competitor(id),
  competitor_sku TEXT,
  confidence REAL NOT NULL DEFAULT 1.0,
  is_manual INTEGER NOT NULL DEFAULT 0,
  phone_model_id INTEGER REFERENCES phone_model(id),
  quality TEXT,
  UNIQUE(product_id, competitor_id)
);

CREATE TABLE IF NOT EXISTS product_match_override (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  competitor_source TEXT NOT NULL,
  competitor_sku TEXT,
  brand TEXT,
  model TEXT,
  variant TEXT,
  product_id INTEGER REFERENCES product(id),
  phone_model_id INTEGER REFERENCES phone_model(id),
  quality TEXT,
  note TEXT,
  created_at TIMESTAMP NOT NULL,
  created_by TEXT,
  UNIQUE(competitor_source, competitor_sku)
);

CREATE TABLE IF NOT EXISTS match_run (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  trace_id TEXT NOT NULL,
  stats_json TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
);
`

	_, err := d.conn.Exec(schema)
	return err
}
