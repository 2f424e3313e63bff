// Package matching resolves ingested competitor records to catalog products
// and persists price observations and match records.
package matching

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pricewatch/internal"
	"pricewatch/internal/catalog"
	"pricewatch/internal/config"
	"pricewatch/internal/normalize"
	"pricewatch/internal/storage"
)

type Engine struct {
	db  *storage.DB
	cfg config.Config
	log *zap.Logger
}

func NewEngine(db *storage.DB, cfg config.Config, log *zap.Logger) *Engine {
	return &Engine{db: db, cfg: cfg, log: log}
}

// RunOptions narrow one matching run. Zero values fall back to the config.
type RunOptions struct {
	DaysBack   int
	Sources    []string
	MaxSamples int
	Subjects   []string
}

// Run matches every competitor record inside the lookback window against the
// catalog. All writes happen in one transaction: a persistence error aborts
// and rolls back the whole run, business non-matches are counters.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*internal.RunResult, error) {
	daysBack := opts.DaysBack
	if daysBack <= 0 {
		daysBack = e.cfg.MatchDaysBack
	}
	maxSamples := opts.MaxSamples
	if maxSamples <= 0 {
		maxSamples = e.cfg.MatchMaxSamples
	}
	subjects := opts.Subjects
	if len(subjects) == 0 {
		subjects = e.cfg.SubjectWhitelist
	}

	now := time.Now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysBack)

	var result *internal.RunResult
	err := e.db.InTx(ctx, func(q *storage.Queries) error {
		records, err := q.ListRecordsSince(ctx, since, opts.Sources)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			result = &internal.RunResult{Skipped: true, Reason: "no_records"}
			return nil
		}

		products, err := q.ListActiveProducts(ctx)
		if err != nil {
			return err
		}
		idx := catalog.BuildIndex(products, e.cfg.DisplayKeyword, subjects)

		overrideRows, err := q.ListOverrides(ctx, opts.Sources)
		if err != nil {
			return err
		}
		overrides := NewOverrideSet(overrideRows)

		e.log.Info("matching run started",
			zap.Int("records", len(records)),
			zap.Int("products", len(products)),
			zap.Int("overrides", len(overrideRows)))

		run := &internal.RunResult{}
		competitors := map[string]internal.Competitor{}

		for _, rec := range records {
			run.Stats.Processed++

			res, err := e.resolveRecord(ctx, q, idx, overrides, rec)
			if err != nil {
				return err
			}
			if res.ambiguous {
				run.Stats.Ambiguous++
				if len(run.AmbiguousSamples) < maxSamples {
					run.AmbiguousSamples = append(run.AmbiguousSamples, sampleOf(rec))
				}
				continue
			}
			if res.product == nil {
				run.Stats.Unmatched++
				if len(run.UnmatchedSamples) < maxSamples {
					run.UnmatchedSamples = append(run.UnmatchedSamples, sampleOf(rec))
				}
				continue
			}

			competitor, ok := competitors[rec.Source]
			if !ok {
				competitor, err = q.EnsureCompetitor(ctx, rec.Source)
				if err != nil {
					return err
				}
				competitors[rec.Source] = competitor
			}

			if err := e.persistMatch(ctx, q, rec, res, competitor, &run.Stats); err != nil {
				return err
			}

			price := rec.PriceRoz
			if price == nil {
				price = rec.PriceOpt
			}
			if price == nil {
				run.Stats.SkippedNoPrice++
			} else {
				exists, err := q.PriceExists(ctx, res.product.ID, competitor.ID, rec.ObservedAt)
				if err != nil {
					return err
				}
				if !exists {
					err = q.InsertPrice(ctx, internal.CompetitorPrice{
						ProductID:    res.product.ID,
						CompetitorID: competitor.ID,
						Price:        *price,
						InStock:      rec.InStock,
						CollectedAt:  rec.ObservedAt,
					})
					if err != nil {
						return err
					}
					run.Stats.PricesCreated++
				}
			}

			run.Stats.Matched++
		}

		statsJSON, err := json.Marshal(run)
		if err != nil {
			return err
		}
		if err := q.InsertMatchRun(ctx, uuid.NewString(), statsJSON); err != nil {
			return err
		}

		result = run
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Skipped {
		e.log.Info("matching run skipped", zap.String("reason", result.Reason))
	} else {
		e.log.Info("matching run complete",
			zap.Int("processed", result.Stats.Processed),
			zap.Int("matched", result.Stats.Matched),
			zap.Int("unmatched", result.Stats.Unmatched),
			zap.Int("ambiguous", result.Stats.Ambiguous),
			zap.Int("prices_created", result.Stats.PricesCreated),
			zap.Int("matches_created", result.Stats.MatchesCreated),
			zap.Int("skipped_no_price", result.Stats.SkippedNoPrice))
	}
	return result, nil
}

// resolution is the terminal state of one record: a product (matched), an
// ambiguity (rejected, never guessed), or neither (unmatched). A phone model
// may be attached in any non-ambiguous state.
type resolution struct {
	product    *internal.Product
	phoneModel *internal.PhoneModel
	quality    string
	isManual   bool
	ambiguous  bool
}

func (e *Engine) resolveRecord(ctx context.Context, q *storage.Queries, idx *catalog.Index, overrides *OverrideSet, rec internal.CompetitorRecord) (resolution, error) {
	name := ""
	if rec.Name != nil {
		name = *rec.Name
	}
	out := resolution{quality: normalize.Quality(name)}
	skuNorm := normalize.SKU(rec.SKU)

	if ov := overrides.Resolve(rec.Source, skuNorm); ov != nil {
		var err error
		if ov.ProductID != nil {
			out.product, err = q.GetProduct(ctx, *ov.ProductID)
			if err != nil {
				return out, err
			}
		}
		if ov.PhoneModelID != nil {
			out.phoneModel, err = q.GetPhoneModel(ctx, *ov.PhoneModelID)
			if err != nil {
				return out, err
			}
		}
		if out.phoneModel == nil && ov.Brand != nil && ov.Model != nil {
			out.phoneModel, err = q.FindPhoneModelByBrandModel(ctx, *ov.Brand, *ov.Model)
			if err != nil {
				return out, err
			}
		}
		if ov.Quality != nil && *ov.Quality != "" {
			out.quality = *ov.Quality
		}
		out.isManual = true
	}

	if out.product == nil && skuNorm != "" {
		candidates := idx.BySKU[skuNorm]
		if len(candidates) > 1 {
			out.ambiguous = true
			return out, nil
		}
		if len(candidates) == 1 {
			p := candidates[0]
			out.product = &p
		}
	}

	if out.product == nil {
		brand, models := normalize.BrandModels(name, e.cfg.DisplayKeyword)
		if brand == "" || len(models) == 0 {
			return out, nil
		}

		matched := overlapCandidates(idx.ByBrandModel[brand], models)
		if len(matched) > 1 {
			matched = disambiguate(matched, name)
		}
		switch {
		case len(matched) == 1:
			p := matched[0]
			out.product = &p
		case len(matched) > 1:
			out.ambiguous = true
			return out, nil
		}

		// An override-pinned phone model is never replaced by the automatic
		// stage.
		if out.phoneModel == nil {
			_, variant := normalize.Variant(normalize.LatinTokens(name))
			var variantPtr *string
			if variant != "" {
				variantPtr = &variant
			}
			pm, err := q.FindPhoneModel(ctx, brand, models[0], variantPtr)
			if err != nil {
				return out, err
			}
			if pm == nil {
				created, err := q.CreatePhoneModel(ctx, brand, models[0], variantPtr)
				if err != nil {
					return out, err
				}
				pm = &created
			}
			out.phoneModel = pm
		}
	}

	return out, nil
}

func (e *Engine) persistMatch(ctx context.Context, q *storage.Queries, rec internal.CompetitorRecord, res resolution, competitor internal.Competitor, stats *internal.MatchStats) error {
	var phoneModelID *int64
	if res.phoneModel != nil {
		phoneModelID = &res.phoneModel.ID
	}

	existing, err := q.GetMatch(ctx, res.product.ID, competitor.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		m := internal.ProductMatch{
			ProductID:    res.product.ID,
			CompetitorID: competitor.ID,
			Confidence:   1.0,
			IsManual:     res.isManual,
			PhoneModelID: phoneModelID,
		}
		if rec.SKU != "" {
			sku := rec.SKU
			m.CompetitorSKU = &sku
		}
		if res.quality != "" {
			quality := res.quality
			m.Quality = &quality
		}
		if err := q.InsertMatch(ctx, m); err != nil {
			return err
		}
		stats.MatchesCreated++
		return nil
	}

	if mergeMatch(existing, phoneModelID, res.quality, res.isManual) {
		return q.UpdateMatch(ctx, *existing)
	}
	return nil
}

// overlapCandidates collects the products whose catalog model token overlaps
// any extracted record token: equal, or one a substring of the other (covers
// punctuation-only differences and truncated variants). Deduplicated by
// product id.
func overlapCandidates(entries []catalog.ModelEntry, models []string) []internal.Product {
	var matched []internal.Product
	seen := map[int64]struct{}{}
	for _, entry := range entries {
		for _, model := range models {
			if entry.Model == model || strings.Contains(model, entry.Model) || strings.Contains(entry.Model, model) {
				if _, dup := seen[entry.Product.ID]; !dup {
					matched = append(matched, entry.Product)
					seen[entry.Product.ID] = struct{}{}
				}
				break
			}
		}
	}
	return matched
}

// disambiguate narrows a multi-candidate set by quality, display type and
// frame, in that order. Each filter is best-effort: one that would empty the
// set is treated as non-discriminating and skipped.
func disambiguate(candidates []internal.Product, name string) []internal.Product {
	if quality := normalize.CanonicalQuality(normalize.Quality(name)); quality != "" && len(candidates) > 1 {
		var filtered []internal.Product
		for _, p := range candidates {
			if p.Quality != nil && normalize.CanonicalQuality(*p.Quality) == quality {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	if displayType := normalize.DisplayType(name); displayType != "" && len(candidates) > 1 {
		var filtered []internal.Product
		for _, p := range candidates {
			if p.DisplayType != nil && strings.EqualFold(*p.DisplayType, displayType) {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	if inFrame := normalize.InFrame(name); inFrame != nil && len(candidates) > 1 {
		var filtered []internal.Product
		for _, p := range candidates {
			if p.InFrame == nil {
				continue
			}
			val := strings.ToLower(strings.TrimSpace(*p.InFrame))
			if *inFrame && (val == "да" || val == "yes" || val == "true" || val == "1") {
				filtered = append(filtered, p)
			}
			if !*inFrame && (val == "нет" || val == "no" || val == "false" || val == "0") {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	return candidates
}

func sampleOf(rec internal.CompetitorRecord) internal.RecordSample {
	name := ""
	if rec.Name != nil {
		name = *rec.Name
	}
	return internal.RecordSample{Source: rec.Source, SKU: rec.SKU, Name: name}
}
