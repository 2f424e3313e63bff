// Package catalog builds the per-run lookup structures over the internal
// product set. Indexes are rebuilt from scratch before each matching run;
// cost is linear in catalog size.
package catalog

import (
	"pricewatch/internal"
	"pricewatch/internal/normalize"
)

// ModelEntry pairs one normalized model token with the product whose name
// produced it. A product appears once per model its name lists.
type ModelEntry struct {
	Model   string
	Product internal.Product
}

type Index struct {
	// BySKU maps normalized SKU to every product sharing it. Normalization
	// can collide distinct real SKUs; a multi-product bucket is an ambiguity
	// the engine must reject, not resolve.
	BySKU map[string][]internal.Product

	// ByBrandModel maps canonical brand to the model tokens extracted from
	// each product's own display name.
	ByBrandModel map[string][]ModelEntry
}

// BuildIndex indexes the given products. displayKeyword gates free-text
// extraction (see normalize.BrandModels); subjects, when non-empty, restricts
// both indexes to products whose subject is whitelisted.
func BuildIndex(products []internal.Product, displayKeyword string, subjects []string) *Index {
	idx := &Index{
		BySKU:        map[string][]internal.Product{},
		ByBrandModel: map[string][]ModelEntry{},
	}

	var whitelist map[string]struct{}
	if len(subjects) > 0 {
		whitelist = make(map[string]struct{}, len(subjects))
		for _, s := range subjects {
			whitelist[s] = struct{}{}
		}
	}

	for _, p := range products {
		if whitelist != nil {
			if p.Subject == nil {
				continue
			}
			if _, ok := whitelist[*p.Subject]; !ok {
				continue
			}
		}

		if key := normalize.SKU(p.SKU); key != "" {
			idx.BySKU[key] = append(idx.BySKU[key], p)
		}

		brand, models := normalize.BrandModels(p.Name, displayKeyword)
		if brand == "" || len(models) == 0 {
			continue
		}
		for _, model := range models {
			idx.ByBrandModel[brand] = append(idx.ByBrandModel[brand], ModelEntry{Model: model, Product: p})
		}
	}

	return idx
}
