package formdef

// ConditionKind tags the predicate variant a visibility condition applies.
type ConditionKind string

const (
	// ConditionEquals shows the field when the referenced answer equals the
	// literal value. Checkbox-group answers match when any selection equals
	// the value.
	ConditionEquals ConditionKind = "equals"
	// ConditionNotEquals is the negation of ConditionEquals.
	ConditionNotEquals ConditionKind = "notEquals"
	// ConditionPresent shows the field when the referenced answer is
	// non-empty.
	ConditionPresent ConditionKind = "present"
	// ConditionAbsent shows the field when the referenced answer is empty or
	// missing.
	ConditionAbsent ConditionKind = "absent"
)

// Known reports whether k is one of the supported variants.
func (k ConditionKind) Known() bool {
	switch k {
	case ConditionEquals, ConditionNotEquals, ConditionPresent, ConditionAbsent:
		return true
	}
	return false
}

// Condition is a visibility predicate over a previously authored field's
// answer. A missing (or nil) answer is a distinct "no value" state: equals
// never matches it, not even against an empty literal, and notEquals always
// does. An explicitly empty string answer compares as a normal value, so
// equals("") matches it. Checkbox-group answers match equals by containment.
type Condition struct {
	Kind  ConditionKind `json:"kind" yaml:"kind"`
	Field string        `json:"field" yaml:"field"`
	Value string        `json:"value,omitempty" yaml:"value,omitempty"`
}

// Eval applies the predicate against the collected answers. Unknown kinds
// evaluate false so a malformed condition hides its field instead of leaking
// it; Validate rejects such definitions before they reach the engine.
func (c Condition) Eval(answers AnswerMap) bool {
	switch c.Kind {
	case ConditionEquals:
		return conditionMatches(answers, c.Field, c.Value)
	case ConditionNotEquals:
		return !conditionMatches(answers, c.Field, c.Value)
	case ConditionPresent:
		return !answers.Empty(c.Field)
	case ConditionAbsent:
		return answers.Empty(c.Field)
	}
	return false
}

func conditionMatches(answers AnswerMap, field, value string) bool {
	v, ok := answers[field]
	if !ok || v == nil {
		return false
	}
	switch items := v.(type) {
	case []string:
		return containsString(items, value)
	case []any:
		for _, item := range items {
			if stringValue(item) == value {
				return true
			}
		}
		return false
	}
	return stringValue(v) == value
}

func containsString(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}

// References returns the answer ids the condition reads. Forward-reference
// checks in Validate walk this list.
func (c Condition) References() []string {
	if c.Field == "" {
		return nil
	}
	return []string{c.Field}
}
