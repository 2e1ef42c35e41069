package openapi

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

// flatSchema is a request schema with its allOf layers folded in: direct
// properties win name collisions, required lists union, and the first
// x-formflow value seen for a key sticks.
type flatSchema struct {
	properties map[string]*openapi3.SchemaRef
	required   []string
	ext        map[string]any
}

func flattenSchema(schema *openapi3.Schema) flatSchema {
	flat := flatSchema{properties: make(map[string]*openapi3.SchemaRef)}
	seen := make(map[*openapi3.Schema]bool)

	var walk func(s *openapi3.Schema)
	walk = func(s *openapi3.Schema) {
		if s == nil || seen[s] {
			return
		}
		seen[s] = true
		for name, ref := range s.Properties {
			if _, ok := flat.properties[name]; !ok {
				flat.properties[name] = ref
			}
		}
		flat.required = append(flat.required, s.Required...)
		if ext := extensionMap(s.Extensions); len(ext) > 0 {
			if flat.ext == nil {
				flat.ext = make(map[string]any)
			}
			for key, value := range ext {
				if _, ok := flat.ext[key]; !ok {
					flat.ext[key] = value
				}
			}
		}
		for _, ref := range s.AllOf {
			if ref != nil {
				walk(ref.Value)
			}
		}
	}
	walk(schema)
	return flat
}

// buildField maps one schema property onto a form field. Properties that
// have no sensible form control (nested objects, free-form arrays without
// options) report ok=false and are left out of the definition.
func buildField(name string, prop *openapi3.Schema, required bool) (formdef.Field, bool) {
	ext := extensionMap(prop.Extensions)

	field := formdef.Field{
		ID:          name,
		Label:       humanize(name),
		Description: prop.Description,
		Required:    required,
	}

	fieldType, ok := mapType(prop, ext)
	if !ok {
		return formdef.Field{}, false
	}
	field.Type = fieldType

	switch fieldType {
	case formdef.FieldTypeNumber, formdef.FieldTypeRating:
		applyNumericBounds(&field, prop)
	case formdef.FieldTypeText, formdef.FieldTypeTextarea:
		applyLengthBounds(&field, prop)
	}
	if prop.Pattern != "" && !fieldType.Static() {
		// The engine enforces pattern only for files; elsewhere it rides
		// along as a format hint.
		ensureValidation(&field).Pattern = prop.Pattern
	}

	if fieldType.HasOptions() && len(field.Options) == 0 {
		field.Options = enumOptions(prop)
	}

	applyFieldExtension(&field, ext)

	if field.Type.Static() {
		field.Required = false
	}
	if field.Type.HasOptions() && len(field.Options) == 0 {
		return formdef.Field{}, false
	}
	return field, true
}

// mapType derives the field type from the schema, letting an x-formflow
// "type" override win when it names a known kind.
func mapType(prop *openapi3.Schema, ext map[string]any) (formdef.FieldType, bool) {
	if v := stringField(ext, "type"); v != "" {
		t := formdef.FieldType(v)
		if t.Known() {
			return t, true
		}
	}

	switch schemaType(prop) {
	case "boolean":
		return formdef.FieldTypeConsent, true
	case "number", "integer":
		return formdef.FieldTypeNumber, true
	case "array":
		if len(enumOptions(prop)) > 0 || len(stringList(ext["options"])) > 0 {
			return formdef.FieldTypeCheckbox, true
		}
		return "", false
	case "object":
		// Field ids are flat; nested objects have no control to map to.
		return "", false
	case "string":
		if len(prop.Enum) > 0 {
			return formdef.FieldTypeSelect, true
		}
		switch prop.Format {
		case "email":
			return formdef.FieldTypeEmail, true
		case "uri", "url":
			return formdef.FieldTypeURL, true
		case "date":
			return formdef.FieldTypeDate, true
		case "date-time":
			return formdef.FieldTypeDateTime, true
		case "phone", "tel":
			return formdef.FieldTypePhone, true
		case "binary", "byte":
			return formdef.FieldTypeFile, true
		}
		return formdef.FieldTypeText, true
	}
	return "", false
}

func schemaType(prop *openapi3.Schema) string {
	if prop.Type == nil {
		return ""
	}
	values := prop.Type.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// enumOptions stringifies the enum of the schema itself or, for arrays, of
// its item schema.
func enumOptions(prop *openapi3.Schema) []string {
	enum := prop.Enum
	if len(enum) == 0 && prop.Items != nil && prop.Items.Value != nil {
		enum = prop.Items.Value.Enum
	}
	if len(enum) == 0 {
		return nil
	}
	out := make([]string, 0, len(enum))
	for _, v := range enum {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func applyNumericBounds(field *formdef.Field, prop *openapi3.Schema) {
	if prop.Min != nil {
		v := *prop.Min
		ensureValidation(field).Min = &v
	}
	if prop.Max != nil {
		v := *prop.Max
		ensureValidation(field).Max = &v
	}
}

func applyLengthBounds(field *formdef.Field, prop *openapi3.Schema) {
	if prop.MinLength != 0 {
		v := float64(prop.MinLength)
		ensureValidation(field).Min = &v
	}
	if prop.MaxLength != nil {
		v := float64(*prop.MaxLength)
		ensureValidation(field).Max = &v
	}
}

func ensureValidation(field *formdef.Field) *formdef.Validation {
	if field.Validation == nil {
		field.Validation = &formdef.Validation{}
	}
	return field.Validation
}

// applyFieldExtension layers x-formflow authoring on top of the schema
// mapping: presentation text, options, constraint overrides, and the
// visibility predicates and rules a JSON schema has no vocabulary for.
func applyFieldExtension(field *formdef.Field, ext map[string]any) {
	if len(ext) == 0 {
		return
	}

	if v := stringField(ext, "label"); v != "" {
		field.Label = v
	}
	if v := stringField(ext, "placeholder"); v != "" {
		field.Placeholder = v
	}
	if v := stringField(ext, "description"); v != "" {
		field.Description = v
	}
	if v := stringField(ext, "content"); v != "" {
		field.Content = v
	}
	if v, ok := boolField(ext, "required"); ok {
		field.Required = v
	}
	if opts := stringList(ext["options"]); len(opts) > 0 {
		field.Options = opts
	}
	if v := stringField(ext, "rule"); v != "" {
		field.Rule = v
	}
	if cond := conditionField(ext["visibility"]); cond != nil {
		field.Visibility = cond
	}
	if v, ok := floatField(ext, "min"); ok {
		ensureValidation(field).Min = &v
	}
	if v, ok := floatField(ext, "max"); ok {
		ensureValidation(field).Max = &v
	}
	if v, ok := floatField(ext, "maxSizeMB"); ok && field.Type == formdef.FieldTypeFile {
		ensureValidation(field).Max = &v
	}
	if v := stringField(ext, "pattern"); v != "" {
		ensureValidation(field).Pattern = v
	}
}

func conditionField(raw any) *formdef.Condition {
	mapped, ok := raw.(map[string]any)
	if !ok || len(mapped) == 0 {
		return nil
	}
	cond := &formdef.Condition{
		Kind:  formdef.ConditionKind(stringField(mapped, "kind")),
		Field: stringField(mapped, "field"),
		Value: stringField(mapped, "value"),
	}
	if cond.Kind == "" || cond.Field == "" {
		return nil
	}
	return cond
}

// humanize turns property names like "firstName" or "company_size" into
// label text ("First Name", "Company Size").
func humanize(name string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = nil
		}
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && i > 0:
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()

	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	if len(words) == 0 {
		return name
	}
	return strings.Join(words, " ")
}

func extensionMap(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	mapped, ok := raw[extensionKey].(map[string]any)
	if !ok {
		return nil
	}
	return mapped
}

func stringField(ext map[string]any, key string) string {
	v, _ := ext[key].(string)
	return strings.TrimSpace(v)
}

func boolField(ext map[string]any, key string) (bool, bool) {
	v, ok := ext[key].(bool)
	return v, ok
}

func intField(ext map[string]any, key string) (int, bool) {
	switch v := ext[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func floatField(ext map[string]any, key string) (float64, bool) {
	switch v := ext[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func stringList(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
