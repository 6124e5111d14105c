package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purl-logs/purl-explorer/pkg/client"
)

// AddTool registers a tool after checking its output type with CheckOutputSchema.
// It panics when the check fails, so a bad output type stops the server at
// startup instead of failing the first call.
//
// Unless the tool already declares one, the output schema is inferred here
// with outputSchemaOptions so log records may carry their extra keys.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	if t.OutputSchema == nil {
		if s, err := outputSchema(reflect.TypeFor[Out]()); err == nil && s != nil {
			tt := *t
			tt.OutputSchema = s
			t = &tt
		}
	}
	sdkmcp.AddTool(srv, t, h)
}

// outputSchemaOptions overrides the inferred schema of client.LogRecord to
// allow the unknown top-level keys it keeps in Extra.
var outputSchemaOptions = sync.OnceValue(func() *jsonschema.ForOptions {
	rec, err := jsonschema.For[client.LogRecord](&jsonschema.ForOptions{})
	if err != nil {
		panic(fmt.Sprintf("inferring log record schema: %v", err))
	}
	rec.AdditionalProperties = nil
	return &jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[client.LogRecord](): rec,
		},
	}
})

// outputSchema infers the output schema of rt. It returns nil for untyped
// outputs.
func outputSchema(rt reflect.Type) (*jsonschema.Schema, error) {
	if rt == reflect.TypeFor[any]() {
		return nil, nil
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return jsonschema.ForType(rt, outputSchemaOptions())
}

// CheckOutputSchema panics unless the zero value of T validates against the
// schema AddTool registers for T.
//
// A nil slice or map marshals as null while the inferred schema says array or
// object, so empty results would be rejected. Tag such fields omitzero or
// omitempty. json.RawMessage fields are rejected too: they marshal as inline
// JSON but are inferred as []byte. client.StreamFrame.Data is the one such
// field in this module and never reaches a tool output.
//
// Untyped "any" outputs and types the SDK cannot infer are skipped; AddTool
// reports the latter itself.
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	elem := rt
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}

	if paths := findRawMessageFields(elem, nil, make(map[reflect.Type]bool)); len(paths) > 0 {
		panic(fmt.Sprintf(
			"AddTool %q: output type %s contains json.RawMessage at %s\n"+
				"  json.RawMessage serializes as transparent JSON but schema generator infers []byte (array of ints)\n"+
				"  Fix: use any and convert with types.ToAny",
			toolName, elem, strings.Join(paths, ", "),
		))
	}

	schema, err := outputSchema(elem)
	if err != nil {
		return
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return
	}

	zero := reflect.Zero(elem).Interface()
	data, err := json.Marshal(zero)
	if err != nil {
		return
	}

	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return
	}

	if err := resolved.Validate(&v); err != nil {
		panic(fmt.Sprintf(
			"AddTool %q: zero value of output type %s fails schema validation: %v\n"+
				"  JSON: %s\n"+
				"  Fix: tag nil-defaulting slice and map fields omitzero",
			toolName, elem, err, data,
		))
	}
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

// findRawMessageFields returns the dotted paths of every json.RawMessage
// reachable from t.
func findRawMessageFields(t reflect.Type, path []string, visited map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == rawMessageType {
		return []string{strings.Join(path, ".")}
	}

	if visited[t] {
		return nil
	}
	visited[t] = true
	defer delete(visited, t)

	var found []string

	switch t.Kind() {
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}

			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}

			fieldPath := append(path, f.Name)

			if ft == rawMessageType {
				found = append(found, strings.Join(fieldPath, "."))
				continue
			}

			found = append(found, findRawMessageFields(ft, fieldPath, visited)...)
		}

	case reflect.Slice, reflect.Array:
		found = append(found, findRawMessageFields(t.Elem(), append(path, "[]"), visited)...)

	case reflect.Map:
		found = append(found, findRawMessageFields(t.Elem(), append(path, "[value]"), visited)...)
	}

	return found
}
