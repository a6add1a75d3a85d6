package definition

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://guardrail.schemas.local/policy-definition.schema.json"

// documentSchema holds the minimum shape a policy definition must have to be
// normalized. Other fields are optional.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["properties"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string"},
    "properties": {
      "type": "object",
      "required": ["policyRule"],
      "properties": {
        "displayName": {"type": "string"},
        "metadata": {"type": "object"},
        "parameters": {
          "type": "object",
          "additionalProperties": {"type": "object"}
        },
        "policyRule": {"type": "object"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(documentSchema)); err != nil {
			schemaErr = fmt.Errorf("policy schema load failed: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("policy schema compile failed: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// validateStructure checks a decoded document against documentSchema.
func validateStructure(doc any) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	return schema.Validate(doc)
}
