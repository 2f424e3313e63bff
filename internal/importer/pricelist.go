// Package importer ingests competitor price lists and scraped catalog pages
// into the record store the matching engine reads. Transport (FTP, scraping)
// happens elsewhere; this package consumes files already on disk.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pricewatch/internal"
	"pricewatch/internal/storage"
)

var requiredColumns = []string{"group", "sku", "name", "price_opt", "price_roz", "link", "time"}

var fileDateRe = regexp.MustCompile(`(\d{4})\.(\d{2})\.(\d{2})`)

type Service struct {
	db  *storage.DB
	log *zap.Logger
}

func NewService(db *storage.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// ImportPriceList ingests one XLSX or CSV price-list file for the named
// source. The file date comes from the YYYY.MM.DD fragment of the filename,
// today when absent; row storage is idempotent per (source, date, row).
func (s *Service) ImportPriceList(ctx context.Context, source, path string) (internal.ImportStats, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return internal.ImportStats{}, err
	}

	fileDate := fileDateFromName(filepath.Base(path))

	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		rows, err = readXLSXRows(content)
	case ".csv":
		rows, err = readCSVRows(content)
	default:
		err = fmt.Errorf("unsupported price list format: %s", filepath.Ext(path))
	}
	if err != nil {
		return internal.ImportStats{}, err
	}

	records, stats, err := parsePriceListRows(rows, source, fileDate)
	if err != nil {
		return internal.ImportStats{}, err
	}

	err = s.db.InTx(ctx, func(q *storage.Queries) error {
		for _, rec := range records {
			stored, err := q.InsertRecord(ctx, rec)
			if err != nil {
				return err
			}
			if stored {
				stats.RowsStored++
			}
		}
		return nil
	})
	if err != nil {
		return internal.ImportStats{}, err
	}

	s.log.Info("price list imported",
		zap.String("source", source),
		zap.String("file", filepath.Base(path)),
		zap.Int("rows_total", stats.RowsTotal),
		zap.Int("rows_valid", stats.RowsValid),
		zap.Int("rows_invalid", stats.RowsInvalid),
		zap.Int("rows_stored", stats.RowsStored))
	return stats, nil
}

func fileDateFromName(name string) time.Time {
	if m := fileDateRe.FindStringSubmatch(name); m != nil {
		if parsed, err := time.Parse("2006.01.02", m[0]); err == nil {
			return parsed.UTC()
		}
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func readXLSXRows(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	return f.GetRows(sheet)
}

func readCSVRows(content []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// headerMap maps lowercased header names to their column index and verifies
// the required price-list columns are all present.
func headerMap(header []string) (map[string]int, error) {
	m := map[string]int{}
	for idx, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if key != "" {
			m[key] = idx
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := m[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return m, nil
}

func cellAt(row []string, m map[string]int, column string) string {
	idx, ok := m[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parsePriceListRows(rows [][]string, source string, fileDate time.Time) ([]internal.CompetitorRecord, internal.ImportStats, error) {
	stats := internal.ImportStats{Source: source}
	if len(rows) == 0 {
		return nil, stats, fmt.Errorf("price list is empty")
	}
	m, err := headerMap(rows[0])
	if err != nil {
		return nil, stats, err
	}

	var records []internal.CompetitorRecord
	for i, row := range rows[1:] {
		stats.RowsTotal++

		sku := strings.TrimSpace(cellAt(row, m, "sku"))
		name := strings.TrimSpace(cellAt(row, m, "name"))
		observedAt, okTime := parseObservedAt(cellAt(row, m, "time"))
		if !okTime || (sku == "" && name == "") {
			stats.RowsInvalid++
			continue
		}

		inStock := true
		if stock := parseBool(cellAt(row, m, "stock")); stock != nil {
			inStock = *stock
		}

		records = append(records, internal.CompetitorRecord{
			Source:     source,
			FileDate:   fileDate,
			RowIndex:   i + 1,
			GroupName:  optString(cellAt(row, m, "group")),
			SKU:        sku,
			Name:       optString(name),
			PriceOpt:   parseDecimal(cellAt(row, m, "price_opt")),
			PriceRoz:   parseDecimal(cellAt(row, m, "price_roz")),
			Link:       optString(cellAt(row, m, "link")),
			InStock:    inStock,
			Amount:     parseInt(cellAt(row, m, "amount")),
			ObservedAt: observedAt,
		})
		stats.RowsValid++
	}

	return records, stats, nil
}
