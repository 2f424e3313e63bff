package normalize

import "regexp"

// brandSynonyms maps device families and sub-brands to the canonical brand.
var brandSynonyms = map[string]string{
	"iphone":   "apple",
	"apple":    "apple",
	"ipad":     "apple",
	"ipod":     "apple",
	"samsung":  "samsung",
	"galaxy":   "samsung",
	"xiaomi":   "xiaomi",
	"poco":     "xiaomi",
	"mi":       "xiaomi",
	"redmi":    "xiaomi",
	"mipad":    "xiaomi",
	"realme":   "realme",
	"vivo":     "vivo",
	"oppo":     "oppo",
	"oneplus":  "oneplus",
	"huawei":   "huawei",
	"honor":    "honor",
	"nokia":    "nokia",
	"sony":     "sony",
	"zte":      "zte",
	"lenovo":   "lenovo",
	"motorola": "motorola",
	"meizu":    "meizu",
}

// stopTokens end the model-name run: colors, condition and finish words, and
// the descriptive suffix that follows the model in spare-parts listings.
var stopTokens = map[string]struct{}{
	"в":          {},
	"с":          {},
	"сборе":      {},
	"тачскрином": {},
	"тачскрин":   {},
	"черный":     {},
	"черный-":    {},
	"черная":     {},
	"чёрный":     {},
	"чёрная":     {},
	"белый":      {},
	"белая":      {},
	"золотистый": {},
	"серый":      {},
	"синий":      {},
	"голубой":    {},
	"красный":    {},
	"розовый":    {},
	"фиолетовый": {},
	"green":      {},
	"black":      {},
	"white":      {},
	"gold":       {},
	"blue":       {},
	"red":        {},
	"pink":       {},
	"оптима":     {},
	"копия":      {},
	"ориг":       {},
	"оригинал":   {},
	"premium":    {},
	"orig":       {},
	"oem":        {},
	"aaa":        {},
	"oled":       {},
	"lcd":        {},
	"frame":      {},
	"без":        {},
	"рамки":      {},
}

var variantTokens = map[string]struct{}{
	"pro":   {},
	"plus":  {},
	"max":   {},
	"ultra": {},
	"mini":  {},
	"lite":  {},
	"fe":    {},
	"edge":  {},
	"note":  {},
	"se":    {},
}

// qualityMarkers map quality-indicating substrings to the canonical tag.
// Scanned in slice order, so more specific markers must come first.
var qualityMarkers = []struct {
	Marker  string
	Quality string
}{
	{"orig", "orig"},
	{"ориг", "orig"},
	{"оригинал", "orig"},
	{"oem", "oem"},
	{"копия", "copy"},
	{"copy", "copy"},
	{"optima", "copy"},
	{"premium", "premium"},
	{"aaa", "premium"},
}

// appleFamilySkip are generic product-family tokens that never belong in an
// Apple model name.
var appleFamilySkip = map[string]struct{}{
	"iphone": {},
	"ipad":   {},
	"ipod":   {},
}

// appleRevisionRe matches Apple hardware revision codes like A2221.
var appleRevisionRe = regexp.MustCompile(`^a\d{4,5}$`)

// wordRe splits free text into word-like runs of Latin, Cyrillic and digits.
var wordRe = regexp.MustCompile(`[a-z0-9а-яё]+`)

// latinWordRe is used for variant detection, where only Latin/digit tokens
// can carry a variant marker.
var latinWordRe = regexp.MustCompile(`[a-z0-9]+`)

// modelCharRe strips everything but Latin letters and digits from a model
// fragment so "S23 Ultra" and "s23ultra" compare equal.
var modelCharRe = regexp.MustCompile(`[^a-z0-9]`)
