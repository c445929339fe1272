package web

import (
	"fmt"
	"strings"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const updateSchemaURL = "property-update.json"

// updateSchema builds the schema of the PUT /api/properties/{id} body from
// the editable field list. Unknown keys are ignored, editable keys must be strings.
func updateSchema() string {
	props := make([]string, 0, len(models.EditableFields))
	for _, f := range models.EditableFields {
		props = append(props, fmt.Sprintf(`%q: {"type": "string", "maxLength": 255}`, f))
	}
	return `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"properties": {` + strings.Join(props, ",") + `}
	}`
}

func compileUpdateSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(updateSchemaURL, strings.NewReader(updateSchema())); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(updateSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile update schema: %w", err)
	}
	return schema, nil
}
