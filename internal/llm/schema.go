package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildDocumentJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is sent to the model as a structured-output constraint and
// also used locally to validate the parsed response. Kept permissive on
// field presence: absent fields become missing_fields, never a failure.
func BuildDocumentJSONSchema() map[string]any {
	dateProp := map[string]any{"type": []string{"string", "null"}}
	stringProp := map[string]any{"type": []string{"string", "null"}}

	evidenceProp := map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type": []string{"object", "null"},
			"properties": map[string]any{
				"snippet": stringProp,
				"bbox": map[string]any{
					"type":     []string{"array", "null"},
					"items":    map[string]any{"type": "number"},
					"maxItems": 4,
				},
			},
		},
	}

	docProps := map[string]any{
		"full_name":       stringProp,
		"birth_date":      dateProp,
		"document_number": stringProp,
		"issue_date":      dateProp,
		"expiry_date":     dateProp,
		"nationality":     stringProp,
		"mrz_raw":         stringProp,
		"evidence":        evidenceProp,
	}

	passportProps := map[string]any{"passport_type": stringProp}
	for k, v := range docProps {
		passportProps[k] = v
	}
	licenseProps := map[string]any{"license_class": stringProp, "address": stringProp}
	for k, v := range docProps {
		licenseProps[k] = v
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"document_type": map[string]any{
				"type": "string",
				"enum": []string{"passport", "drivers_license", "unknown"},
			},
			"ai_confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"missing_fields": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"passport": map[string]any{
				"type":       []string{"object", "null"},
				"properties": passportProps,
			},
			"drivers_license": map[string]any{
				"type":       []string{"object", "null"},
				"properties": licenseProps,
			},
			"raw_text": stringProp,
		},
		"required": []string{"document_type"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
