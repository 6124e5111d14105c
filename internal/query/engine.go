// Package query provides jq-based projection over decoded JSON values such as
// server metrics and buffered log records.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/itchyny/gojq"
)

// Engine executes jq expressions against decoded JSON values.
// Inputs must be built from map[string]any, []any and JSON scalars.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// QueryResult contains the results of a jq query.
type QueryResult struct {
	Values         []any          `json:"values"`                    // Extracted values
	Errors         []string       `json:"errors,omitempty"`          // Per-input errors (e.g., type mismatch)
	RawCount       int            `json:"raw_count"`                 // Count before deduplication
	MatchedIndices []int          `json:"matched_indices,omitempty"` // Indices of inputs that produced values
	LabelCounts    map[string]int `json:"label_counts,omitempty"`    // Value count per label
}

func compile(expression string) (*gojq.Code, error) {
	q, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return code, nil
}

// Query executes a jq expression against a single input.
func (e *Engine) Query(input any, expression string, deduplicate bool, maxResults int) (*QueryResult, error) {
	return e.QueryMultiple([]any{input}, nil, expression, deduplicate, maxResults)
}

// QueryMultiple executes a jq expression against every input, combining the
// results. Labels identify each input in error messages (e.g., log IDs).
func (e *Engine) QueryMultiple(inputs []any, labels []string, expression string, deduplicate bool, maxResults int) (*QueryResult, error) {
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Values:      make([]any, 0),
		Errors:      make([]string, 0),
		LabelCounts: make(map[string]int),
	}

	seen := make(map[string]bool)
	seenErrors := make(map[string]bool)
	matchedSet := make(map[int]bool)

	for i, input := range inputs {
		if maxResults > 0 && len(result.Values) >= maxResults {
			break
		}

		label := fmt.Sprintf("input[%d]", i)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}

		iter := code.Run(input)
		for {
			if maxResults > 0 && len(result.Values) >= maxResults {
				break
			}

			v, ok := iter.Next()
			if !ok {
				break
			}

			if err, isErr := v.(error); isErr {
				errMsg := formatJQError(label, err)
				if !seenErrors[errMsg] {
					result.Errors = append(result.Errors, errMsg)
					seenErrors[errMsg] = true
				}
				continue
			}

			if v == nil {
				continue
			}

			result.RawCount++
			result.LabelCounts[label]++
			matchedSet[i] = true

			if deduplicate {
				key := valueKey(v)
				if seen[key] {
					continue
				}
				seen[key] = true
			}

			result.Values = append(result.Values, v)
		}
	}

	for idx := range matchedSet {
		result.MatchedIndices = append(result.MatchedIndices, idx)
	}
	sort.Ints(result.MatchedIndices)

	return result, nil
}

// Project evaluates each named expression against input and keeps the first
// non-null value it yields. Names whose expression fails or yields nothing are
// omitted from the result and reported in the returned error list.
func (e *Engine) Project(input any, projections map[string]string) (map[string]any, []string) {
	out := make(map[string]any, len(projections))
	var errs []string

	names := make([]string, 0, len(projections))
	for name := range projections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		code, err := compile(projections[name])
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		iter := code.Run(input)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				errs = append(errs, formatJQError(name, err))
				break
			}
			if v != nil {
				out[name] = v
				break
			}
		}
	}

	return out, errs
}

// formatJQError creates a helpful error message for jq execution errors.
//
// Runtime jq errors (like "cannot iterate over: null") are plain errors
// without typed wrappers in gojq, so string matching is used for the hints.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()

	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this input)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}

	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}

// valueKey creates a string key for deduplication.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	case nil:
		return "null"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}

// ValidateExpression checks if a jq expression is valid without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return fmt.Errorf("invalid jq expression: %w", err)
	}

	if _, err := gojq.Compile(query); err != nil {
		return fmt.Errorf("failed to compile jq expression: %w", err)
	}

	return nil
}
