// Package export writes matching-run diagnostics for operator review.
package export

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pricewatch/internal"
)

// WriteRunReport saves the run's unmatched and ambiguous samples to an XLSX
// workbook, one sheet per outcome, plus a sheet with the run counters.
func WriteRunReport(result *internal.RunResult, outputPath string) error {
	f := excelize.NewFile()

	statsSheet := f.GetSheetName(0)
	_ = f.SetSheetName(statsSheet, "stats")
	statsRows := [][]any{
		{"processed", result.Stats.Processed},
		{"matched", result.Stats.Matched},
		{"prices_created", result.Stats.PricesCreated},
		{"matches_created", result.Stats.MatchesCreated},
		{"unmatched", result.Stats.Unmatched},
		{"ambiguous", result.Stats.Ambiguous},
		{"skipped_no_price", result.Stats.SkippedNoPrice},
	}
	for i, row := range statsRows {
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			_ = f.SetCellValue("stats", cell, value)
		}
	}

	if err := writeSampleSheet(f, "unmatched", result.UnmatchedSamples); err != nil {
		return err
	}
	if err := writeSampleSheet(f, "ambiguous", result.AmbiguousSamples); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeSampleSheet(f *excelize.File, name string, samples []internal.RecordSample) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	headers := []string{"source", "sku", "name"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(name, cell, h)
	}

	for i, sample := range samples {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(name, cell, value)
		}
		set(1, sample.Source)
		set(2, sample.SKU)
		set(3, sample.Name)
	}

	return nil
}
