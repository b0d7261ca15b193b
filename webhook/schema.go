package webhook

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "webhook://schema/parameters.json"

// parametersSchema describes the "parameters" object of a webhook post-serve action
const parametersSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "method": {"type": "string"},
    "url": {"type": "string"},
    "body": {"type": "string"},
    "headers": {
      "type": "object",
      "additionalProperties": {
        "oneOf": [
          {"type": "string"},
          {"type": "array", "items": {"type": "string"}, "minItems": 1}
        ]
      }
    },
    "delay": {
      "oneOf": [
        {"type": "integer", "minimum": 0, "maximum": 9223372036854},
        {"$ref": "#/$defs/fixed"},
        {"$ref": "#/$defs/uniform"}
      ]
    }
  },
  "$defs": {
    "fixed": {
      "type": "object",
      "properties": {
        "type": {"const": "fixed"},
        "milliseconds": {"type": "integer", "minimum": 0, "maximum": 9223372036854}
      },
      "required": ["type", "milliseconds"]
    },
    "uniform": {
      "type": "object",
      "properties": {
        "type": {"const": "uniform"},
        "lower": {"type": "integer", "minimum": 0, "maximum": 9223372036854},
        "upper": {"type": "integer", "minimum": 0, "maximum": 9223372036854}
      },
      "required": ["type", "lower", "upper"]
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(parametersSchema))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
})

// validateParameters checks raw against the parameters schema
func validateParameters(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("loading parameters schema: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ConfigurationError{Reason: "malformed JSON", Err: err}
	}

	if err := schema.Validate(instance); err != nil {
		return &ConfigurationError{Reason: "parameters do not match the webhook schema", Err: err}
	}
	return nil
}
