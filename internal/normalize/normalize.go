// Package normalize turns noisy competitor strings into comparable keys.
// Every extractor is total: when the pattern is absent it returns the zero
// value, never an error.
package normalize

import (
	"regexp"
	"strings"
)

var skuSpaceRe = regexp.MustCompile(`[\s\t\n\r]+`)

// SKU lowercases, unifies en/em dashes to a hyphen and removes all
// whitespace. Empty input stays empty and never matches anything.
func SKU(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, "—", "-")
	return skuSpaceRe.ReplaceAllString(s, "")
}

// ModelToken reduces a model-name fragment to bare Latin letters and digits.
func ModelToken(value string) string {
	return modelCharRe.ReplaceAllString(strings.ToLower(value), "")
}

// BrandModels extracts the canonical brand and the candidate model strings
// from a free-text listing name. displayKeyword gates extraction: listings
// without it are not display parts and yield no result.
//
// Brand is located after the preposition "для" when present, otherwise by
// scanning all tokens against the synonym table. Tokens after the brand
// accumulate into the current model candidate; a repeated brand mention
// flushes the candidate and starts the next one ("iPhone 12 / iPhone 12 Pro"
// listings), and the first stop token ends accumulation.
func BrandModels(name, displayKeyword string) (string, []string) {
	if name == "" {
		return "", nil
	}
	lower := strings.ToLower(name)
	if displayKeyword != "" && !strings.Contains(lower, strings.ToLower(displayKeyword)) {
		return "", nil
	}
	tokens := wordRe.FindAllString(lower, -1)

	brand := ""
	start := -1
	for idx, tok := range tokens {
		if tok == "для" && idx+1 < len(tokens) {
			brandToken := tokens[idx+1]
			if canonical, ok := brandSynonyms[brandToken]; ok {
				brand = canonical
			} else {
				brand = brandToken
			}
			start = idx + 2
			break
		}
	}
	if brand == "" {
		for idx, tok := range tokens {
			if canonical, ok := brandSynonyms[tok]; ok {
				brand = canonical
				start = idx + 1
				break
			}
		}
	}
	if brand == "" || start < 0 {
		return "", nil
	}

	var models []string
	var current []string
	seen := map[string]struct{}{}
	flush := func() {
		if len(current) == 0 {
			return
		}
		norm := ModelToken(strings.Join(current, " "))
		if norm != "" {
			if _, dup := seen[norm]; !dup {
				models = append(models, norm)
				seen[norm] = struct{}{}
			}
		}
		current = nil
	}

	for _, tok := range tokens[start:] {
		if brandSynonyms[tok] == brand {
			flush()
			continue
		}
		if brand == "apple" {
			if _, skip := appleFamilySkip[tok]; skip {
				continue
			}
			if appleRevisionRe.MatchString(tok) {
				continue
			}
		}
		if _, stop := stopTokens[tok]; stop {
			break
		}
		current = append(current, tok)
	}
	flush()
	return brand, models
}

// Quality scans a listing name for quality-indicating substrings and returns
// the canonical tag (orig/oem/copy/premium), or "" when none is present.
func Quality(name string) string {
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	for _, m := range qualityMarkers {
		if strings.Contains(lower, m.Marker) {
			return m.Quality
		}
	}
	return ""
}

// CanonicalQuality maps the free-form quality values found on catalog rows
// (OR, ORIG100, оптима, ...) onto the same canonical tags Quality emits.
// Unknown values pass through lowercased so exact matches still compare.
func CanonicalQuality(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "orig", "or", "or100", "orig100", "ориг100", "ориг", "ор":
		return "orig"
	case "copy", "копия", "optima", "оптима":
		return "copy"
	case "oem":
		return "oem"
	case "premium", "премиум":
		return "premium"
	}
	return v
}

// DisplayType detects the display technology named in a listing, first match
// wins in specificity order.
func DisplayType(name string) string {
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	dashless := strings.ReplaceAll(lower, "-", " ")
	switch {
	case strings.Contains(lower, "hard oled") || strings.Contains(dashless, "hard oled"):
		return "hard oled"
	case strings.Contains(lower, "soft oled") || strings.Contains(dashless, "soft oled"):
		return "soft oled"
	case strings.Contains(lower, "oled"):
		return "oled"
	case strings.Contains(lower, "in-cell") || strings.Contains(lower, "incell"):
		return "in-cell"
	case strings.Contains(lower, "tft") || strings.Contains(lower, "lcd"):
		return "lcd"
	}
	return ""
}

// InFrame reports whether the listing names a framed ("в рамке") or frameless
// ("без рамки", "no frame") part; nil when the listing does not say.
func InFrame(name string) *bool {
	if name == "" {
		return nil
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "в рамке") {
		v := true
		return &v
	}
	if strings.Contains(lower, "без рамки") || strings.Contains(lower, "no frame") {
		v := false
		return &v
	}
	return nil
}

// LatinTokens returns the Latin/digit word runs of a lowercased name. Variant
// markers only ever appear in these.
func LatinTokens(name string) []string {
	return latinWordRe.FindAllString(strings.ToLower(name), -1)
}

// Variant pulls the first known variant marker (pro, plus, max, ...) out of
// the token list, returning the remaining tokens and the marker.
func Variant(tokens []string) ([]string, string) {
	if len(tokens) == 0 {
		return tokens, ""
	}
	variant := ""
	filtered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := variantTokens[tok]; ok && variant == "" {
			variant = tok
			continue
		}
		filtered = append(filtered, tok)
	}
	return filtered, variant
}
