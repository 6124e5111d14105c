// Package fields describes the fields present across a set of log records:
// where they occur, how often, what types and formats their values take, and
// which of them are low-cardinality enough to facet on.
package fields

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// Field contains statistics for one field path across the samples.
type Field struct {
	Path          string   `json:"path"`                 // Dotted path, e.g. "meta.namespace" or "meta.tags[]"
	Type          string   `json:"type"`                 // JSON type, "a|b" when mixed
	Frequency     float64  `json:"frequency"`            // Fraction of samples containing this field (0.0-1.0)
	Nullable      bool     `json:"nullable,omitempty"`   // At least one sample has null for this field
	DistinctCount int      `json:"distinct_count"`       // Distinct scalar values observed, capped at MaxTracked
	Examples      []any    `json:"examples,omitzero"`    // Up to 3 example values
	Format        string   `json:"format,omitempty"`     // uuid, iso8601, url, email or enum
	EnumValues    []string `json:"enum_values,omitzero"` // All distinct values when format is "enum"
}

// Options bounds the walk.
type Options struct {
	MaxDepth int // Nesting levels below the record (default 5)
}

const (
	defaultMaxDepth       = 5
	maxExamples           = 3
	minSamplesForFormat   = 5
	maxEnumDistinctValues = 10

	// MaxTracked caps the distinct values remembered per field.
	MaxTracked = 1000
)

var (
	uuidRegex    = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	iso8601Regex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2})?`)
	urlRegex     = regexp.MustCompile(`^https?://`)
	emailRegex   = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
)

type acc struct {
	present  int
	nulls    int
	types    map[string]bool
	distinct map[string]bool
	examples []any
	strings  []string
	seenIn   int // index of the last sample that counted toward present
}

// Describe walks every sample (a decoded JSON object) and returns one Field
// per path, sorted by path. Samples that are not objects are ignored.
func Describe(samples []any, opts Options) []Field {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	accs := make(map[string]*acc)
	total := 0
	for _, sample := range samples {
		obj, ok := sample.(map[string]any)
		if !ok {
			continue
		}
		total++
		walk(obj, "", total, 0, maxDepth, accs)
	}
	if total == 0 {
		return nil
	}

	out := make([]Field, 0, len(accs))
	for path, a := range accs {
		f := Field{
			Path:          path,
			Type:          joinTypes(a.types),
			Frequency:     float64(a.present) / float64(total),
			Nullable:      a.nulls > 0,
			DistinctCount: len(a.distinct),
			Examples:      a.examples,
		}
		if f.Type == "string" && len(a.strings) >= minSamplesForFormat {
			f.Format, f.EnumValues = detectFormat(a.strings)
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// FacetCandidates returns the paths of string fields with an enum format,
// ordered by descending frequency. These make useful facets.
func FacetCandidates(fields []Field) []string {
	var cands []Field
	for _, f := range fields {
		if f.Format == "enum" && !strings.HasSuffix(f.Path, "[]") {
			cands = append(cands, f)
		}
	}
	slices.SortStableFunc(cands, func(a, b Field) int {
		switch {
		case a.Frequency > b.Frequency:
			return -1
		case a.Frequency < b.Frequency:
			return 1
		}
		return strings.Compare(a.Path, b.Path)
	})

	paths := make([]string, len(cands))
	for i, f := range cands {
		paths[i] = f.Path
	}
	return paths
}

func walk(obj map[string]any, prefix string, sampleIdx, depth, maxDepth int, accs map[string]*acc) {
	for key, val := range obj {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		record(path, val, sampleIdx, depth, maxDepth, accs)
	}
}

func record(path string, val any, sampleIdx, depth, maxDepth int, accs map[string]*acc) {
	a, ok := accs[path]
	if !ok {
		a = &acc{types: make(map[string]bool), distinct: make(map[string]bool)}
		accs[path] = a
	}
	// Array items share a path, so presence is counted once per sample.
	if a.seenIn != sampleIdx {
		a.seenIn = sampleIdx
		a.present++
	}

	if val == nil {
		a.nulls++
		a.types["null"] = true
		return
	}

	switch v := val.(type) {
	case map[string]any:
		a.types["object"] = true
		if depth < maxDepth {
			walk(v, path, sampleIdx, depth+1, maxDepth, accs)
		}
		return
	case []any:
		a.types["array"] = true
		if depth < maxDepth {
			for _, item := range v {
				if item != nil {
					record(path+"[]", item, sampleIdx, depth+1, maxDepth, accs)
				}
			}
		}
		return
	}

	a.types[typeOf(val)] = true
	key := fmt.Sprintf("%v", val)
	if !a.distinct[key] && len(a.distinct) < MaxTracked {
		a.distinct[key] = true
		if len(a.examples) < maxExamples {
			a.examples = append(a.examples, val)
		}
	}
	if s, ok := val.(string); ok {
		a.strings = append(a.strings, s)
	}
}

func typeOf(v any) string {
	switch val := v.(type) {
	case bool:
		return "boolean"
	case float64:
		if val == float64(int64(val)) {
			return "integer"
		}
		return "number"
	case string:
		return "string"
	default:
		return "unknown"
	}
}

func joinTypes(types map[string]bool) string {
	list := make([]string, 0, len(types))
	for t := range types {
		list = append(list, t)
	}
	sort.Strings(list)
	return strings.Join(list, "|")
}

// detectFormat detects common value formats for string fields.
func detectFormat(values []string) (string, []string) {
	for _, f := range []struct {
		name string
		re   *regexp.Regexp
	}{
		{"uuid", uuidRegex},
		{"iso8601", iso8601Regex},
		{"url", urlRegex},
		{"email", emailRegex},
	} {
		if allMatch(values, f.re) {
			return f.name, nil
		}
	}

	distinct := make(map[string]bool)
	for _, v := range values {
		distinct[v] = true
		if len(distinct) > maxEnumDistinctValues {
			return "", nil
		}
	}
	enumValues := make([]string, 0, len(distinct))
	for v := range distinct {
		enumValues = append(enumValues, v)
	}
	sort.Strings(enumValues)
	return "enum", enumValues
}

func allMatch(values []string, re *regexp.Regexp) bool {
	for _, v := range values {
		if !re.MatchString(v) {
			return false
		}
	}
	return true
}
