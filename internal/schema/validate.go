// Package schema validates inbound JSON payloads against JSON Schemas
// reflected from the client's Go types.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/purl-logs/purl-explorer/pkg/client"
)

// ValidationResult is the outcome of validating one payload.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Err returns the validation errors as a single error, or nil when valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New(strings.Join(r.Errors, "; "))
}

// Validator validates JSON data against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// Reflect generates the JSON Schema of a Go value. Properties tagged
// omitempty are optional; all others are required. Unknown properties are
// allowed so newer backends can add fields.
func Reflect(v any) *invopop.Schema {
	r := &invopop.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	return r.Reflect(v)
}

// NewLogRecordValidator returns a validator for client.LogRecord payloads.
// The id may be a string or a number, matching what LogRecord decodes.
func NewLogRecordValidator() (*Validator, error) {
	s := Reflect(&client.LogRecord{})
	s.Properties.Set("id", &invopop.Schema{
		AnyOf: []*invopop.Schema{{Type: "string"}, {Type: "number"}, {Type: "null"}},
	})
	return NewValidatorFromSchema(s)
}

// NewValidatorFromSchema compiles a reflected schema.
func NewValidatorFromSchema(s *invopop.Schema) (*Validator, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return NewValidator(data)
}

// NewValidator compiles a raw JSON Schema document.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	var doc map[string]any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON Schema: %w", err)
	}
	// The reflected $id points at the Go package path, which is not a
	// resolvable location. Compile under a local name instead.
	delete(doc, "$id")

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// Validate validates a JSON document against the schema.
func (v *Validator) Validate(data []byte) *ValidationResult {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("invalid JSON: %s", err.Error())},
		}
	}
	return v.ValidateValue(value)
}

// ValidateValue validates an already-decoded value against the schema.
func (v *Validator) ValidateValue(value any) *ValidationResult {
	err := v.schema.Validate(value)
	if err == nil {
		return &ValidationResult{Valid: true}
	}
	return &ValidationResult{
		Valid:  false,
		Errors: extractValidationErrors(err),
	}
}

// extractValidationErrors extracts human-readable error messages from a validation error.
func extractValidationErrors(err error) []string {
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractDetailedErrors(validationErr)
	}
	return []string{err.Error()}
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// extractDetailedErrors flattens a ValidationError into sorted, deduplicated
// "path: message" lines.
func extractDetailedErrors(err *jsonschema.ValidationError) []string {
	errorsByPath := make(map[string][]string)
	collectErrors(err, errorsByPath)

	var result []string
	for path, msgs := range errorsByPath {
		seen := make(map[string]bool)
		for _, msg := range msgs {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, fmt.Sprintf("%s: %s", path, msg))
			} else {
				result = append(result, msg)
			}
		}
	}
	sort.Strings(result)
	return result
}

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		// $ref wrappers carry no information of their own
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
