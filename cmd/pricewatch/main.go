package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"pricewatch/internal"
	"pricewatch/internal/config"
	"pricewatch/internal/export"
	"pricewatch/internal/importer"
	"pricewatch/internal/matching"
	"pricewatch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.LogLevel)
	must(err)
	defer func() { _ = logger.Sync() }()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx := context.Background()
	cmd := os.Args[1]
	switch cmd {
	case "catalog:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "catalog xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		svc := importer.NewService(db, logger)
		count, err := svc.ImportCatalog(ctx, *file)
		must(err)
		fmt.Printf("catalog import complete: %d products\n", count)
	case "pricelist:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("source", "", "competitor source name")
		file := fs.String("file", "", "price list path (.xlsx|.csv)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*source) == "" || strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--source and --file are required"))
		}
		svc := importer.NewService(db, logger)
		stats, err := svc.ImportPriceList(ctx, *source, *file)
		must(err)
		printJSON(stats)
	case "scrape:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("source", "", "competitor source name")
		file := fs.String("file", "", "scraped html page path")
		observed := fs.String("observed", "", "observation time, RFC3339 (default now)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*source) == "" || strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--source and --file are required"))
		}
		observedAt := time.Now().UTC()
		if strings.TrimSpace(*observed) != "" {
			observedAt, err = time.Parse(time.RFC3339, *observed)
			must(err)
		}
		svc := importer.NewService(db, logger)
		stats, err := svc.ImportCatalogPage(ctx, *source, *file, observedAt)
		must(err)
		printJSON(stats)
	case "match:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		days := fs.Int("days", 0, "lookback window in days")
		sources := fs.String("sources", "", "comma-separated source filter")
		maxSamples := fs.Int("max-samples", 0, "diagnostic sample cap")
		subjects := fs.String("subjects", "", "comma-separated subject whitelist")
		report := fs.String("report", "", "optional xlsx report path")
		_ = fs.Parse(os.Args[2:])

		engine := matching.NewEngine(db, cfg, logger)
		result, err := engine.Run(ctx, matching.RunOptions{
			DaysBack:   *days,
			Sources:    splitList(*sources),
			MaxSamples: *maxSamples,
			Subjects:   splitList(*subjects),
		})
		must(err)
		printJSON(result)
		if strings.TrimSpace(*report) != "" && !result.Skipped {
			must(export.WriteRunReport(result, *report))
			fmt.Fprintf(os.Stderr, "report written to %s\n", *report)
		}
	case "override:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("source", "", "competitor source name")
		sku := fs.String("sku", "", "competitor sku (empty = whole source)")
		productID := fs.Int64("product-id", 0, "pinned product id")
		phoneModelID := fs.Int64("phone-model-id", 0, "pinned phone model id")
		brand := fs.String("brand", "", "pinned brand")
		model := fs.String("model", "", "pinned model")
		variant := fs.String("variant", "", "pinned variant")
		quality := fs.String("quality", "", "pinned quality tag")
		note := fs.String("note", "", "operator note")
		by := fs.String("by", "", "operator name")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*source) == "" {
			must(fmt.Errorf("--source is required"))
		}
		ov := overrideFromFlags(*source, *sku, *productID, *phoneModelID, *brand, *model, *variant, *quality, *note, *by)
		must(db.Queries().InsertOverride(ctx, ov))
		fmt.Println("override added")
	default:
		usage()
		os.Exit(1)
	}
}

func overrideFromFlags(source, sku string, productID, phoneModelID int64, brand, model, variant, quality, note, by string) internal.MatchOverride {
	ov := internal.MatchOverride{
		CompetitorSource: source,
		CompetitorSKU:    opt(sku),
		Brand:            opt(brand),
		Model:            opt(model),
		Variant:          opt(variant),
		Quality:          opt(quality),
		Note:             opt(note),
		CreatedBy:        opt(by),
	}
	if productID > 0 {
		ov.ProductID = &productID
	}
	if phoneModelID > 0 {
		ov.PhoneModelID = &phoneModelID
	}
	return ov
}

func opt(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func buildLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err == nil {
		zcfg.Level = lvl
	}
	return zcfg.Build()
}

func printJSON(v any) {
	blob, err := json.MarshalIndent(v, "", "  ")
	must(err)
	fmt.Println(string(blob))
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func usage() {
	fmt.Println("usage: pricewatch <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:import   --file=catalog.xlsx")
	fmt.Println("  pricelist:import --source=moba --file=price_2025.08.30.xlsx")
	fmt.Println("  scrape:import    --source=green-spark --file=page.html [--observed=RFC3339]")
	fmt.Println("  match:run        [--days=3] [--sources=a,b] [--max-samples=20] [--subjects=...] [--report=out.xlsx]")
	fmt.Println("  override:add     --source=moba [--sku=...] [--product-id=N] [--phone-model-id=N] [--brand=...] [--model=...] [--variant=...] [--quality=...] [--note=...] [--by=...]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
