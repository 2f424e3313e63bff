package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"pricewatch/internal"
	"pricewatch/internal/storage"
)

var catalogRequired = []string{"sku", "name"}

// ImportCatalog loads the internal product catalog from an XLSX file with
// columns sku, name and the optional attribute columns brand, category,
// subject, quality, display_type, in_frame, is_active. Rows upsert by SKU.
func (s *Service) ImportCatalog(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	rows, err := readXLSXRows(content)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("catalog file is empty")
	}

	m := map[string]int{}
	for idx, cell := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(cell))
		if key != "" {
			m[key] = idx
		}
	}
	for _, col := range catalogRequired {
		if _, ok := m[col]; !ok {
			return 0, fmt.Errorf("missing columns: %s", col)
		}
	}

	count := 0
	err = s.db.InTx(ctx, func(q *storage.Queries) error {
		for _, row := range rows[1:] {
			sku := strings.TrimSpace(cellAt(row, m, "sku"))
			name := strings.TrimSpace(cellAt(row, m, "name"))
			if sku == "" || name == "" {
				continue
			}

			isActive := true
			if active := parseBool(cellAt(row, m, "is_active")); active != nil {
				isActive = *active
			}

			p := internal.Product{
				SKU:         sku,
				Name:        name,
				Brand:       optString(cellAt(row, m, "brand")),
				Category:    optString(cellAt(row, m, "category")),
				Subject:     optString(cellAt(row, m, "subject")),
				Quality:     optString(cellAt(row, m, "quality")),
				DisplayType: optString(cellAt(row, m, "display_type")),
				InFrame:     optString(cellAt(row, m, "in_frame")),
				IsActive:    isActive,
			}
			if err := q.UpsertProduct(ctx, p); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("catalog imported", zap.String("file", filepath.Base(path)), zap.Int("products", count))
	return count, nil
}
