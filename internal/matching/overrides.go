package matching

import (
	"strings"

	"pricewatch/internal"
	"pricewatch/internal/normalize"
)

type overrideKey struct {
	source string
	sku    string
}

// OverrideSet resolves manually curated corrections for competitor records.
// Lookup order is exact (source, normalized sku) first, then the source-wide
// wildcard row (null sku).
type OverrideSet struct {
	exact    map[overrideKey]internal.MatchOverride
	bySource map[string]internal.MatchOverride
}

func NewOverrideSet(rows []internal.MatchOverride) *OverrideSet {
	s := &OverrideSet{
		exact:    map[overrideKey]internal.MatchOverride{},
		bySource: map[string]internal.MatchOverride{},
	}
	for _, ov := range rows {
		if ov.CompetitorSKU == nil || strings.TrimSpace(*ov.CompetitorSKU) == "" {
			s.bySource[ov.CompetitorSource] = ov
			continue
		}
		s.exact[overrideKey{ov.CompetitorSource, normalize.SKU(*ov.CompetitorSKU)}] = ov
	}
	return s
}

func (s *OverrideSet) Resolve(source, normalizedSKU string) *internal.MatchOverride {
	if ov, ok := s.exact[overrideKey{source, normalizedSKU}]; ok {
		return &ov
	}
	if ov, ok := s.bySource[source]; ok {
		return &ov
	}
	return nil
}
