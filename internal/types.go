package internal

import (
	"encoding/json"
	"time"
)

// Product is a canonical catalog entry. Identity is the SKU; the attribute
// columns (subject, quality, display type, frame) come from the internal
// catalog import and drive match disambiguation.
type Product struct {
	ID          int64   `db:"id"`
	SKU         string  `db:"sku"`
	Name        string  `db:"name"`
	Brand       *string `db:"brand"`
	Category    *string `db:"category"`
	Subject     *string `db:"subject"`
	Quality     *string `db:"quality"`
	DisplayType *string `db:"display_type"`
	InFrame     *string `db:"in_frame"`
	IsActive    bool    `db:"is_active"`
}

// Competitor is an external price source, created lazily on first encounter.
type Competitor struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	IsActive bool   `db:"is_active"`
}

// CompetitorRecord is one ingested price-list or catalog row, the unit the
// matching engine consumes. Rows are unique per (source, file_date, row_index)
// so re-ingesting the same file is a no-op.
type CompetitorRecord struct {
	ID         int64     `db:"id"`
	Source     string    `db:"source"`
	FileDate   time.Time `db:"file_date"`
	RowIndex   int       `db:"row_index"`
	GroupName  *string   `db:"group_name"`
	SKU        string    `db:"sku"`
	Name       *string   `db:"name"`
	PriceOpt   *float64  `db:"price_opt"`
	PriceRoz   *float64  `db:"price_roz"`
	Link       *string   `db:"link"`
	InStock    bool      `db:"in_stock"`
	Amount     *int64    `db:"amount"`
	ObservedAt time.Time `db:"observed_at"`
}

// CompetitorPrice is one observed (product, competitor, price) snapshot.
// Append-only; at most one row per (product, competitor, collected_at).
type CompetitorPrice struct {
	ID           int64     `db:"id"`
	ProductID    int64     `db:"product_id"`
	CompetitorID int64     `db:"competitor_id"`
	Price        float64   `db:"price"`
	InStock      bool      `db:"in_stock"`
	CollectedAt  time.Time `db:"collected_at"`
}

// ProductMatch links a Product to a Competitor's listing of it. At most one
// row per (product, competitor); later runs fill missing fields without
// overwriting set ones.
type ProductMatch struct {
	ID            int64   `db:"id"`
	ProductID     int64   `db:"product_id"`
	CompetitorID  int64   `db:"competitor_id"`
	CompetitorSKU *string `db:"competitor_sku"`
	Confidence    float64 `db:"confidence"`
	IsManual      bool    `db:"is_manual"`
	PhoneModelID  *int64  `db:"phone_model_id"`
	Quality       *string `db:"quality"`
}

// PhoneModel is a synthetic catalog entity for a brand/model/variant inferred
// from competitor free text, kept even when no stocked Product exists for it.
type PhoneModel struct {
	ID        int64   `db:"id"`
	Brand     string  `db:"brand"`
	ModelName string  `db:"model_name"`
	Variant   *string `db:"variant"`
}

// MatchOverride is a manually curated correction keyed by competitor source
// and raw SKU. A nil CompetitorSKU applies to every record from the source.
type MatchOverride struct {
	ID               int64     `db:"id"`
	CompetitorSource string    `db:"competitor_source"`
	CompetitorSKU    *string   `db:"competitor_sku"`
	Brand            *string   `db:"brand"`
	Model            *string   `db:"model"`
	Variant          *string   `db:"variant"`
	ProductID        *int64    `db:"product_id"`
	PhoneModelID     *int64    `db:"phone_model_id"`
	Quality          *string   `db:"quality"`
	Note             *string   `db:"note"`
	CreatedAt        time.Time `db:"created_at"`
	CreatedBy        *string   `db:"created_by"`
}

// RecordSample is a diagnostic excerpt of an unmatched or ambiguous record.
type RecordSample struct {
	Source string `json:"source"`
	SKU    string `json:"sku"`
	Name   string `json:"name"`
}

// MatchStats are the counters of one matching run.
type MatchStats struct {
	Processed      int `json:"processed"`
	Matched        int `json:"matched"`
	PricesCreated  int `json:"prices_created"`
	MatchesCreated int `json:"matches_created"`
	Unmatched      int `json:"unmatched"`
	Ambiguous      int `json:"ambiguous"`
	SkippedNoPrice int `json:"skipped_no_price"`
}

// RunResult is what a matching run returns to its caller. A run over an empty
// record set reports Skipped with a reason instead of zero counters.
type RunResult struct {
	Skipped          bool
	Reason           string
	Stats            MatchStats
	UnmatchedSamples []RecordSample
	AmbiguousSamples []RecordSample
}

// MarshalJSON keeps the two result shapes apart: a skipped run serializes as
// {"skipped": true, "reason": ...} only, a completed run as the flat stats
// object with its sample lists.
func (r RunResult) MarshalJSON() ([]byte, error) {
	if r.Skipped {
		return json.Marshal(struct {
			Skipped bool   `json:"skipped"`
			Reason  string `json:"reason"`
		}{true, r.Reason})
	}
	unmatched := r.UnmatchedSamples
	if unmatched == nil {
		unmatched = []RecordSample{}
	}
	ambiguous := r.AmbiguousSamples
	if ambiguous == nil {
		ambiguous = []RecordSample{}
	}
	return json.Marshal(struct {
		Skipped bool `json:"skipped"`
		MatchStats
		UnmatchedSamples []RecordSample `json:"unmatched_samples"`
		AmbiguousSamples []RecordSample `json:"ambiguous_samples"`
	}{false, r.Stats, unmatched, ambiguous})
}

// ImportStats summarizes one price-list or catalog-page ingestion.
type ImportStats struct {
	Source      string `json:"source"`
	RowsTotal   int    `json:"rows_total"`
	RowsValid   int    `json:"rows_valid"`
	RowsInvalid int    `json:"rows_invalid"`
	RowsStored  int    `json:"rows_stored"`
}
