package record

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "ncube://record.schema.json"

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["dimension", "rotations"],
  "properties": {
    "dimension": {"type": "integer"},
    "rotations": {
      "type": "array",
      "items": {
        "type": "array",
        "minItems": 4,
        "maxItems": 4,
        "prefixItems": [
          {"type": "integer", "minimum": 0},
          {"type": "integer", "minimum": 0},
          {"type": "number"},
          {"type": "number"}
        ]
      }
    },
    "edgeThickness": {"type": "number", "minimum": 0},
    "edgeColor": {"$ref": "#/$defs/color"},
    "faceColor": {"$ref": "#/$defs/color"},
    "cameraTransform": {
      "type": "object",
      "properties": {
        "translation": {"$ref": "#/$defs/vec3"},
        "rotation": {"type": "array", "items": {"type": "number"}, "minItems": 4, "maxItems": 4},
        "scale": {"$ref": "#/$defs/vec3"}
      }
    },
    "unlit": {"type": "boolean"}
  },
  "$defs": {
    "vec3": {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3},
    "color": {
      "type": "object",
      "properties": {
        "r": {"type": "number"},
        "g": {"type": "number"},
        "b": {"type": "number"},
        "a": {"type": "number"}
      }
    }
  }
}`

var schema = jsonschema.MustCompileString(schemaURL, schemaJSON)

// validateSchema checks a decoded JSON document (from json.Unmarshal into any).
func validateSchema(doc any) error {
	return schema.Validate(doc)
}
