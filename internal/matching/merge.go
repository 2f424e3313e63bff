package matching

import "pricewatch/internal"

// mergeMatch refines an existing match with newly resolved fields under
// set-if-unset semantics: phone model and quality only fill gaps, the manual
// flag is promoted to true but never demoted. Reports whether anything
// changed.
func mergeMatch(existing *internal.ProductMatch, phoneModelID *int64, quality string, isManual bool) bool {
	changed := false
	if phoneModelID != nil && existing.PhoneModelID == nil {
		existing.PhoneModelID = phoneModelID
		changed = true
	}
	if quality != "" && (existing.Quality == nil || *existing.Quality == "") {
		q := quality
		existing.Quality = &q
		changed = true
	}
	if isManual && !existing.IsManual {
		existing.IsManual = true
		changed = true
	}
	return changed
}
