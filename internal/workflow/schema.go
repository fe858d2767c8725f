package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// workflowSchema is the structural contract for workflow files, applied
// before decoding so malformed files fail with a location instead of a
// half-decoded plan.
const workflowSchema = `{
  "type": "object",
  "required": ["name", "data", "factor"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "data": {
      "type": "object",
      "required": ["loader", "writer"],
      "properties": {
        "loader": {"$ref": "#/$defs/endpoint"},
        "writer": {"$ref": "#/$defs/endpoint"}
      }
    },
    "factor": {
      "type": "object",
      "required": ["indicators"],
      "properties": {
        "indicators": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/$defs/step"}
        },
        "crosses": {
          "type": "array",
          "items": {"$ref": "#/$defs/crossStep"}
        }
      }
    }
  },
  "$defs": {
    "endpoint": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "args": {"type": "object"}
      }
    },
    "step": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "args": {"type": "object"}
      }
    },
    "crossStep": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "orders": {"type": "array", "items": {"type": "integer"}},
        "args": {"type": "object"}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("workflow.schema.json", workflowSchema)

func validateSchema(settings map[string]any) error {
	// Round-trip through JSON so the validator sees canonical types rather
	// than whatever the YAML/TOML reader produced.
	buf, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("normalizing workflow settings: %w", err)
	}
	var doc any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return fmt.Errorf("normalizing workflow settings: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
