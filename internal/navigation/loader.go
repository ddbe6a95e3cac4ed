package navigation

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// menuSchema constrains the menu document shape before decoding. Every
// node must carry an id; requirement lists and children are optional
// (absence of requirements is legal in the document and handled by the
// fail-closed rule at filter time).
const menuSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "items"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "items": {
      "type": "array",
      "items": {"$ref": "#/definitions/node"}
    }
  },
  "additionalProperties": false,
  "definitions": {
    "node": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "title": {"type": "string"},
        "path": {"type": "string"},
        "requiredPermissions": {
          "type": "array",
          "items": {"type": "string", "minLength": 1}
        },
        "requiredRoles": {
          "type": "array",
          "items": {"type": "string", "minLength": 1}
        },
        "children": {
          "type": "array",
          "items": {"$ref": "#/definitions/node"}
        }
      },
      "additionalProperties": false
    }
  }
}`

// Load reads, validates, and decodes a menu document from disk. Invalid
// documents are a startup failure; there is no partial menu.
func Load(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	return Parse(data)
}

// Parse validates raw menu JSON against the embedded schema and decodes
// it into a Menu.
func Parse(data []byte) (*Menu, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse menu JSON: %w", err)
	}

	schema, err := compileMenuSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("menu document invalid: %w", err)
	}

	var menu Menu
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &menu,
		WeaklyTypedInput: true, // version arrives as json.Number
	})
	if err != nil {
		return nil, fmt.Errorf("build menu decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode menu document: %w", err)
	}
	return &menu, nil
}

func compileMenuSchema() (*jsonschema.Schema, error) {
	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(menuSchema))
	if err != nil {
		return nil, fmt.Errorf("parse menu schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	if err := compiler.AddResource("menu.schema.json", parsed); err != nil {
		return nil, fmt.Errorf("add menu schema resource: %w", err)
	}
	schema, err := compiler.Compile("menu.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile menu schema: %w", err)
	}
	return schema, nil
}
