package registry

import (
	"fmt"
	"reflect"
)

// FieldType enumerates the wire types an argument field may declare.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldObject  FieldType = "object"
	FieldArray   FieldType = "array"
)

// Field declares one accepted argument of a custom tool.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	// Enum restricts a string field to a fixed value set when non-empty.
	Enum []string
	// Minimum and Maximum bound numeric fields when non-nil.
	Minimum *float64
	Maximum *float64
}

// ArgumentSchema is the explicit, declared description of a custom tool's
// accepted arguments. It is authored alongside the tool registration, never
// inferred, so it can be transmitted to the provider for argument generation.
type ArgumentSchema struct {
	Fields []Field
}

// WireSchema renders the declaration as a JSON-schema object suitable for a
// provider function-tool declaration.
func (s ArgumentSchema) WireSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	var required []string
	for _, field := range s.Fields {
		property := map[string]any{"type": string(field.Type)}
		if field.Description != "" {
			property["description"] = field.Description
		}
		if len(field.Enum) > 0 {
			values := make([]any, len(field.Enum))
			for i, v := range field.Enum {
				values[i] = v
			}
			property["enum"] = values
		}
		if field.Minimum != nil {
			property["minimum"] = *field.Minimum
		}
		if field.Maximum != nil {
			property["maximum"] = *field.Maximum
		}
		properties[field.Name] = property
		if field.Required {
			required = append(required, field.Name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Validate checks provider-generated arguments against the declaration.
// A mismatch is reported back to the provider as that call's error result,
// so the returned error carries the field context.
func (s ArgumentSchema) Validate(arguments map[string]any) error {
	fields := make(map[string]Field, len(s.Fields))
	for _, field := range s.Fields {
		fields[field.Name] = field
	}

	for _, field := range s.Fields {
		if !field.Required {
			continue
		}
		if _, ok := arguments[field.Name]; !ok {
			return fmt.Errorf("missing required argument %q", field.Name)
		}
	}

	for name, value := range arguments {
		field, declared := fields[name]
		if !declared {
			return fmt.Errorf("unknown argument %q", name)
		}
		if err := validateFieldValue(field, value); err != nil {
			return err
		}
	}
	return nil
}

func validateFieldValue(field Field, value any) error {
	if !matchesFieldType(field.Type, value) {
		return fmt.Errorf("argument %q must be %q", field.Name, field.Type)
	}

	if len(field.Enum) > 0 {
		text, _ := value.(string)
		allowed := false
		for _, candidate := range field.Enum {
			if text == candidate {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("argument %q must be one of %v", field.Name, field.Enum)
		}
	}

	if field.Minimum != nil || field.Maximum != nil {
		numeric, ok := asFloat(value)
		if ok {
			if field.Minimum != nil && numeric < *field.Minimum {
				return fmt.Errorf("argument %q must be >= %v", field.Name, *field.Minimum)
			}
			if field.Maximum != nil && numeric > *field.Maximum {
				return fmt.Errorf("argument %q must be <= %v", field.Name, *field.Maximum)
			}
		}
	}
	return nil
}

func matchesFieldType(expected FieldType, value any) bool {
	switch expected {
	case FieldString:
		_, ok := value.(string)
		return ok
	case FieldBoolean:
		_, ok := value.(bool)
		return ok
	case FieldNumber:
		return isNumber(value)
	case FieldInteger:
		return isInteger(value)
	case FieldObject:
		if value == nil {
			return false
		}
		if _, ok := value.(map[string]any); ok {
			return true
		}
		return reflect.TypeOf(value).Kind() == reflect.Map
	case FieldArray:
		if value == nil {
			return false
		}
		kind := reflect.TypeOf(value).Kind()
		return kind == reflect.Array || kind == reflect.Slice
	default:
		return true
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32, float64:
		return true
	default:
		return false
	}
}

// isInteger accepts whole-valued floats because JSON decoding produces
// float64 for every numeric argument.
func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == float64(int64(v))
	case float32:
		return v == float32(int32(v))
	default:
		return false
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
