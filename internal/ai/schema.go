package ai

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// completionSchema is the minimal shape a successful reply must have.
var completionSchema = map[string]any{
	"type":     "object",
	"required": []string{"choices"},
	"properties": map[string]any{
		"choices": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"message"},
				"properties": map[string]any{
					"message": map[string]any{
						"type":     "object",
						"required": []string{"content"},
						"properties": map[string]any{
							"content": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	},
}

var completionSchemaLoader = gojsonschema.NewGoLoader(completionSchema)

// validateCompletion checks body against completionSchema.
func validateCompletion(body []byte) error {
	result, err := gojsonschema.Validate(completionSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("response failed validation: %s", strings.Join(details, "; "))
}
