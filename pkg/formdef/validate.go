package formdef

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/visibility/expr"
)

// Issue is a single definition lint finding. FieldID is empty only when the
// field itself has no id.
type Issue struct {
	FieldID string `json:"fieldId,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.FieldID == "" {
		return i.Message
	}
	return i.FieldID + ": " + i.Message
}

// LintError aggregates every issue found in a definition.
type LintError struct {
	Issues []Issue
}

func (e *LintError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return "formdef: invalid definition: " + strings.Join(parts, "; ")
}

// Validate lints the definition before engine use. It rejects duplicate or
// missing field ids, unknown field types, required static content, option
// mismatches, malformed validation bounds, and visibility predicates or rules
// that reference the field itself, a later field, or an unknown field.
// Returns nil or a *LintError carrying every issue found.
func (d *Definition) Validate() error {
	if d == nil {
		return &LintError{Issues: []Issue{{Message: "definition is nil"}}}
	}

	var issues []Issue
	report := func(fieldID, format string, args ...any) {
		issues = append(issues, Issue{FieldID: fieldID, Message: fmt.Sprintf(format, args...)})
	}

	position := make(map[string]int, len(d.Fields))
	for i, f := range d.Fields {
		if f.ID == "" {
			report("", "field at index %d has no id", i)
			continue
		}
		if _, dup := position[f.ID]; dup {
			report(f.ID, "duplicate field id")
			continue
		}
		position[f.ID] = i
	}

	for i, f := range d.Fields {
		if f.ID == "" {
			continue
		}

		if !f.Type.Known() {
			report(f.ID, "unknown field type %q", f.Type)
			continue
		}
		if f.Required && (f.Type.Static() || f.Type == FieldTypeHidden) {
			report(f.ID, "%s fields cannot be required", f.Type)
		}
		if f.Type.HasOptions() && len(f.Options) == 0 {
			report(f.ID, "%s fields need at least one option", f.Type)
		}
		if !f.Type.HasOptions() && len(f.Options) > 0 {
			report(f.ID, "options are only valid on select, checkbox, and radio fields")
		}

		checkBounds(report, f)

		if f.Visibility != nil {
			cond := f.Visibility
			if !cond.Kind.Known() {
				report(f.ID, "unknown condition kind %q", cond.Kind)
			}
			if cond.Field == "" {
				report(f.ID, "condition is missing a field reference")
			} else {
				checkReference(report, position, i, f.ID, cond.Field)
			}
		}

		if f.Rule != "" {
			refs, err := expr.References(f.Rule)
			if err != nil {
				report(f.ID, "rule does not parse: %v", err)
			} else {
				for _, ref := range refs {
					checkReference(report, position, i, f.ID, ref)
				}
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &LintError{Issues: issues}
}

// checkReference enforces the ordering contract: a predicate may only read
// answers of fields authored earlier in the list.
func checkReference(report func(string, string, ...any), position map[string]int, index int, fieldID, ref string) {
	refIndex, known := position[ref]
	switch {
	case ref == fieldID:
		report(fieldID, "condition references itself")
	case !known:
		report(fieldID, "condition references unknown field %q", ref)
	case refIndex >= index:
		report(fieldID, "condition references %q which is defined later", ref)
	}
}

func checkBounds(report func(string, string, ...any), f Field) {
	v := f.Validation
	if v == nil {
		return
	}
	if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
		report(f.ID, "validation.min exceeds validation.max")
	}
	switch f.Type {
	case FieldTypeText, FieldTypeTextarea:
		if v.Min != nil && *v.Min < 0 {
			report(f.ID, "validation.min cannot be a negative length")
		}
		if v.Max != nil && *v.Max < 0 {
			report(f.ID, "validation.max cannot be a negative length")
		}
	case FieldTypeFile:
		if v.Max != nil && *v.Max <= 0 {
			report(f.ID, "validation.max must be a positive size in megabytes")
		}
	}
}
