package tools

import (
	"fmt"

	"github.com/purl-logs/purl-explorer/pkg/client"
)

// CompactOptions controls how log entries are shortened in tool output.
type CompactOptions struct {
	MaxArrayItems int // Trim meta and extra arrays to N items (0 = no limit)
	MaxStringLen  int // Truncate message, raw and meta strings longer than N bytes (0 = no limit)
}

// Default compaction limits.
const (
	DefaultMaxArrayItems = 3
	DefaultMaxStringLen  = 500
)

// DefaultCompactOptions returns the default compaction settings.
func DefaultCompactOptions() CompactOptions {
	return CompactOptions{
		MaxArrayItems: DefaultMaxArrayItems,
		MaxStringLen:  DefaultMaxStringLen,
	}
}

// compactRecords returns shortened copies of entries. Raw is dropped when it
// only repeats Message. The input slice and its meta and extra maps are not modified.
func compactRecords(entries []client.LogRecord, opts CompactOptions) []client.LogRecord {
	if len(entries) == 0 {
		return entries
	}
	out := make([]client.LogRecord, len(entries))
	for i, rec := range entries {
		if rec.Raw == rec.Message {
			rec.Raw = ""
		}
		rec.Message = truncate(rec.Message, opts.MaxStringLen)
		rec.Raw = truncate(rec.Raw, opts.MaxStringLen)
		if rec.Meta != nil {
			rec.Meta = compactObject(rec.Meta, opts)
		}
		if rec.Extra != nil {
			rec.Extra = compactObject(rec.Extra, opts)
		}
		out[i] = rec
	}
	return out
}

func compactValue(v any, opts CompactOptions) any {
	switch val := v.(type) {
	case []any:
		return compactArray(val, opts)
	case map[string]any:
		return compactObject(val, opts)
	case string:
		return truncate(val, opts.MaxStringLen)
	default:
		return v
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + fmt.Sprintf("... (%d more chars)", len(s)-limit)
}

func compactArray(arr []any, opts CompactOptions) []any {
	n := len(arr)
	if opts.MaxArrayItems > 0 && n > opts.MaxArrayItems {
		n = opts.MaxArrayItems
	}
	result := make([]any, n, n+1)
	for i := range n {
		result[i] = compactValue(arr[i], opts)
	}
	if n < len(arr) {
		result = append(result, fmt.Sprintf("... (%d more items)", len(arr)-n))
	}
	return result
}

func compactObject(obj map[string]any, opts CompactOptions) map[string]any {
	result := make(map[string]any, len(obj))
	for k, v := range obj {
		result[k] = compactValue(v, opts)
	}
	return result
}

// shapeEntries compacts entries unless verbose output was requested.
func shapeEntries(entries []client.LogRecord, verbose bool) []client.LogRecord {
	if verbose {
		return entries
	}
	return compactRecords(entries, DefaultCompactOptions())
}
