package fields

import (
	"strings"

	"github.com/invopop/jsonschema"
)

var formatNames = map[string]string{
	"uuid":    "uuid",
	"iso8601": "date-time",
	"url":     "uri",
	"email":   "email",
}

// Schema assembles a JSON Schema (Draft 2020-12) for the record shape from
// the fields returned by Describe. Fields present and non-null in every
// sample are marked required.
func Schema(fields []Field) *jsonschema.Schema {
	root := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	nodes := map[string]*jsonschema.Schema{"": root}

	// Describe sorts by path, so parents are always built before children.
	for _, f := range fields {
		node := fieldSchema(f)
		nodes[f.Path] = node

		if itemsOf, ok := strings.CutSuffix(f.Path, "[]"); ok {
			if parent := nodes[itemsOf]; parent != nil {
				parent.Items = node
			}
			continue
		}

		parentPath, key := "", f.Path
		if i := strings.LastIndex(f.Path, "."); i >= 0 {
			parentPath, key = f.Path[:i], f.Path[i+1:]
		}
		parent := nodes[parentPath]
		if parent == nil {
			continue
		}
		if parent.Properties == nil {
			parent.Properties = jsonschema.NewProperties()
		}
		parent.Properties.Set(key, node)
		if f.Frequency == 1 && !f.Nullable {
			parent.Required = append(parent.Required, key)
		}
	}
	return root
}

func fieldSchema(f Field) *jsonschema.Schema {
	types := strings.Split(f.Type, "|")
	s := &jsonschema.Schema{}
	if len(types) == 1 {
		s.Type = types[0]
	} else {
		for _, t := range types {
			s.AnyOf = append(s.AnyOf, &jsonschema.Schema{Type: t})
		}
	}

	if f.Format == "enum" {
		for _, v := range f.EnumValues {
			s.Enum = append(s.Enum, v)
		}
	} else if name, ok := formatNames[f.Format]; ok {
		s.Format = name
	}
	if s.Type != "object" && s.Type != "array" {
		s.Examples = f.Examples
	}
	return s
}
