package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"pricewatch/internal"
	"pricewatch/internal/storage"
)

// ImportCatalogPage ingests a scraped competitor catalog page. Offers are
// `div.offer` blocks carrying data-sku/data-price/data-availability/data-url/
// data-category attributes with the listing name as text; only the retail
// price is published on storefronts.
func (s *Service) ImportCatalogPage(ctx context.Context, source, path string, observedAt time.Time) (internal.ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return internal.ImportStats{}, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return internal.ImportStats{}, err
	}

	observedAt = observedAt.UTC()
	fileDate := time.Date(observedAt.Year(), observedAt.Month(), observedAt.Day(), 0, 0, 0, 0, time.UTC)

	stats := internal.ImportStats{Source: source}
	var records []internal.CompetitorRecord
	doc.Find("div.offer").Each(func(i int, sel *goquery.Selection) {
		stats.RowsTotal++

		sku, _ := sel.Attr("data-sku")
		priceAttr, _ := sel.Attr("data-price")
		name := strings.TrimSpace(sel.Text())
		price := parseDecimal(priceAttr)
		if strings.TrimSpace(sku) == "" && name == "" || price == nil {
			stats.RowsInvalid++
			return
		}

		inStock := true
		if avail, ok := sel.Attr("data-availability"); ok {
			if parsed := parseBool(avail); parsed != nil {
				inStock = *parsed
			}
		}
		url, _ := sel.Attr("data-url")
		category, _ := sel.Attr("data-category")

		records = append(records, internal.CompetitorRecord{
			Source:     source,
			FileDate:   fileDate,
			RowIndex:   i + 1,
			GroupName:  optString(category),
			SKU:        strings.TrimSpace(sku),
			Name:       optString(name),
			PriceRoz:   price,
			Link:       optString(url),
			InStock:    inStock,
			ObservedAt: observedAt,
		})
		stats.RowsValid++
	})

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

	s.log.Info("catalog page imported",
		zap.String("source", source),
		zap.String("file", filepath.Base(path)),
		zap.Int("rows_total", stats.RowsTotal),
		zap.Int("rows_valid", stats.RowsValid),
		zap.Int("rows_stored", stats.RowsStored))
	return stats, nil
}
