// Package interval selects the histogram bucket width for a time window.
package interval

import "time"

// Bucket widths understood by the histogram endpoint.
const (
	Minute = "1 minute"
	Hour   = "1 hour"
	Day    = "1 day"
)

// Default is returned for unknown or unspecified ranges.
const Default = Hour

// presets maps each preset range token to its bucket width.
var presets = map[string]string{
	"5m":  Minute,
	"15m": Minute,
	"30m": Minute,
	"1h":  Minute,
	"3h":  Minute,
	"4h":  Minute,
	"6h":  Minute,
	"12h": Hour,
	"24h": Hour,
	"7d":  Hour,
	"30d": Day,
}

// Select returns the bucket width for a range token. When the token is
// "custom" and both bounds are set, the width is derived from the span between
// them instead. Select never fails.
func Select(rangeToken string, from, to time.Time) string {
	if rangeToken == "custom" && !from.IsZero() && !to.IsZero() {
		return forSpan(to.Sub(from))
	}
	if w, ok := presets[rangeToken]; ok {
		return w
	}
	return Default
}

// forSpan applies the custom-range thresholds. They differ from the preset
// table on purpose: a 7d custom span gets daily buckets while the 7d preset
// gets hourly ones.
func forSpan(d time.Duration) string {
	hours := d.Hours()
	switch {
	case hours <= 6:
		return Minute
	case hours <= 48:
		return Hour
	default:
		return Day
	}
}

// IsPreset reports whether token is one of the preset range tokens.
func IsPreset(token string) bool {
	_, ok := presets[token]
	return ok
}

// Presets returns the preset range tokens in ascending order of span.
func Presets() []string {
	return []string{"5m", "15m", "30m", "1h", "3h", "4h", "6h", "12h", "24h", "7d", "30d"}
}
