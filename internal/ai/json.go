package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

// ResponseSchema pairs the schema sent to the model with a compiled JSON
// Schema used to validate what comes back.
type ResponseSchema struct {
	Model     *genai.Schema
	validator *gojsonschema.Schema
}

// NewResponseSchema compiles s for response validation
func NewResponseSchema(s *genai.Schema) (*ResponseSchema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(toJSONSchema(s)))
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}
	return &ResponseSchema{Model: s, validator: compiled}, nil
}

// MustResponseSchema is NewResponseSchema for package-level schemas
func MustResponseSchema(s *genai.Schema) *ResponseSchema {
	rs, err := NewResponseSchema(s)
	if err != nil {
		panic(err)
	}
	return rs
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every schema violation in a model response
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("response failed schema validation:")
	for _, e := range ve.Errors {
		fmt.Fprintf(&sb, " %s: %s;", e.Field, e.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Validate checks raw JSON against the schema
func (rs *ResponseSchema) Validate(raw string) error {
	result, err := rs.validator.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, e := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{Field: e.Field(), Message: e.Description()})
	}
	return ve
}

// DecodeJSON strips markdown fences from a model response, validates it
// against schema when one is given and unmarshals it into T.
func DecodeJSON[T any](raw string, schema *ResponseSchema) (T, error) {
	var out T
	cleaned := CleanJSON(raw)
	if schema != nil {
		if err := schema.Validate(cleaned); err != nil {
			return out, err
		}
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, fmt.Errorf("failed to decode response JSON: %w", err)
	}
	return out, nil
}

// CleanJSON removes ```json fences some models wrap around JSON output
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// toJSONSchema converts the subset of genai.Schema we use into a JSON Schema document
func toJSONSchema(s *genai.Schema) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if t := strings.ToLower(string(s.Type)); t != "" && t != "type_unspecified" {
		out["type"] = t
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = toJSONSchema(p)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Items != nil {
		out["items"] = toJSONSchema(s.Items)
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	return out
}
