package nutrition

import (
	"encoding/json"
	"fmt"
)

// Schema is a structured-output type descriptor sent alongside each
// generation request and used to validate the returned document. It mirrors
// the subset of JSON Schema the generation API understands.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Schema type names.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Validate checks that raw parses as JSON and satisfies the schema's
// required fields, recursively. A missing required field or a malformed
// document is fatal for the call that produced it.
func (s *Schema) Validate(raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	return s.validateValue(doc, "$")
}

func (s *Schema) validateValue(v interface{}, path string) error {
	if s == nil || v == nil {
		return nil
	}

	switch s.Type {
	case TypeObject:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: %s is not an object", ErrSchemaViolation, path)
		}
		for _, req := range s.Required {
			if _, present := obj[req]; !present {
				return fmt.Errorf("%w: missing required field %s.%s", ErrSchemaViolation, path, req)
			}
		}
		for name, prop := range s.Properties {
			if child, present := obj[name]; present {
				if err := prop.validateValue(child, path+"."+name); err != nil {
					return err
				}
			}
		}
	case TypeArray:
		arr, ok := v.([]interface{})
		if !ok {
			return fmt.Errorf("%w: %s is not an array", ErrSchemaViolation, path)
		}
		for i, item := range arr {
			if err := s.Items.validateValue(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}

	return nil
}
