package importer

import (
	"strconv"
	"strings"
	"time"
)

// Price-list timestamps carry no zone and are written in Moscow time.
var mskZone = time.FixedZone("MSK", 3*60*60)

// parseDecimal reads a price cell, tolerating the decimal comma.
func parseDecimal(value string) *float64 {
	v := strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// parseBool reads a stock/availability cell; nil when the cell is empty or
// not recognizably boolean.
func parseBool(value string) *bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return nil
	}
	switch v {
	case "1", "true", "yes", "y", "да", "in_stock", "available", "есть":
		b := true
		return &b
	case "0", "false", "no", "n", "нет":
		b := false
		return &b
	}
	return nil
}

func parseInt(value string) *int64 {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	// xlsx libraries render integer cells as "5.0" at times.
	if dot := strings.IndexByte(v, '.'); dot >= 0 {
		v = v[:dot]
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// parseObservedAt reads the price list's "time" column
// ("2006.01.02 15:04:05", Moscow time) and returns the instant in UTC.
func parseObservedAt(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation("2006.01.02 15:04:05", v, mskZone)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

func optString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
