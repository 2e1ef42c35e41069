package formdef

import (
	"fmt"
	"strconv"
)

// AnswerMap holds the answers collected so far, keyed by field id. Values are
// loosely typed because answers arrive both from Go callers and from decoded
// JSON: strings for text-like fields, []string (or []any of strings) for
// checkbox groups, bool for consent, float64 for number and rating, and
// FileValue (or its JSON object form) for file fields. The engine only reads
// the map.
type AnswerMap map[string]any

// FileValue is the structured answer a file field carries. Data may be empty
// when the caller uploads out of band and only reports name and size.
type FileValue struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type,omitempty"`
	Data []byte `json:"data,omitempty"`
}

// Empty reports whether the value under id counts as "no answer": a missing
// key, nil, an empty string, an empty slice, false, or a zero FileValue.
// Numbers are never empty, including zero.
func (m AnswerMap) Empty(id string) bool {
	v, ok := m[id]
	if !ok {
		return true
	}
	return emptyValue(v)
}

func emptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case FileValue:
		return val.Name == "" && val.Size == 0
	case *FileValue:
		return val == nil || (val.Name == "" && val.Size == 0)
	case map[string]any:
		return len(val) == 0
	}
	return false
}

// String coerces the value under id to a string. Slices join to a comma
// separated list so equality conditions can match single selections.
func (m AnswerMap) String(id string) string {
	v, ok := m[id]
	if !ok {
		return ""
	}
	return stringValue(v)
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case []string:
		return joinStrings(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, stringValue(item))
		}
		return joinStrings(parts)
	case FileValue:
		return val.Name
	case *FileValue:
		if val == nil {
			return ""
		}
		return val.Name
	}
	return fmt.Sprintf("%v", v)
}

func joinStrings(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "," + p
	}
	return out
}

// Strings coerces the value under id to a string slice. Scalars become a
// single-element slice; empty answers return nil.
func (m AnswerMap) Strings(id string) []string {
	v, ok := m[id]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringValue(item))
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	}
	return []string{stringValue(v)}
}

// Bool coerces the value under id to a bool. Strings follow strconv rules.
func (m AnswerMap) Bool(id string) bool {
	v, ok := m[id]
	if !ok {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		parsed, err := strconv.ParseBool(val)
		return err == nil && parsed
	case float64:
		return val != 0
	case int:
		return val != 0
	}
	return false
}

// Number coerces the value under id to a float64, reporting whether the
// value was numeric (or a numeric string).
func (m AnswerMap) Number(id string) (float64, bool) {
	v, ok := m[id]
	if !ok {
		return 0, false
	}
	return numberValue(v)
}

func numberValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// File coerces the value under id to a FileValue. JSON-decoded answers arrive
// as map[string]any and are converted field by field; anything else that is
// not already a FileValue reports false.
func (m AnswerMap) File(id string) (FileValue, bool) {
	v, ok := m[id]
	if !ok {
		return FileValue{}, false
	}
	switch val := v.(type) {
	case FileValue:
		return val, true
	case *FileValue:
		if val == nil {
			return FileValue{}, false
		}
		return *val, true
	case map[string]any:
		return fileFromMap(val)
	}
	return FileValue{}, false
}

func fileFromMap(raw map[string]any) (FileValue, bool) {
	name, _ := raw["name"].(string)
	size, sized := numberValue(raw["size"])
	if name == "" && !sized {
		return FileValue{}, false
	}
	out := FileValue{Name: name, Size: int64(size)}
	if mime, ok := raw["type"].(string); ok {
		out.Type = mime
	}
	switch data := raw["data"].(type) {
	case []byte:
		out.Data = data
	case string:
		out.Data = []byte(data)
	}
	return out, true
}

// Clone returns a shallow copy of the map. Answer values are treated as
// immutable by every consumer, so a key-level copy is enough.
func (m AnswerMap) Clone() AnswerMap {
	if m == nil {
		return nil
	}
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
