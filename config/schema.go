package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for xsh.yml. Unknown top-level
// keys are allowed because they are extensions; the defaults block is
// strict.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "xsh Configuration"
	schema.Description = "Schema for xsh.yml and xsh.toml."
	schema.Version = "http://json-schema.org/draft-07/schema#"
	// Extensions live next to the core keys.
	schema.AdditionalProperties = nil

	return json.MarshalIndent(schema, "", "  ")
}
