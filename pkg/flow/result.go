package flow

import "github.com/goliatone/go-formflow/pkg/formdef"

// Result is the validation outcome for the currently visible subset. Errors
// maps field id to a single message and is always non-nil so JSON consumers
// see {} rather than null.
type Result struct {
	Valid  bool              `json:"isValid"`
	Errors map[string]string `json:"errors"`
}

// ErrorFor returns the message recorded for a field id.
func (r Result) ErrorFor(id string) (string, bool) {
	msg, ok := r.Errors[id]
	return msg, ok
}

// Snapshot is what a renderer consumes after every answer mutation: the
// ordered visible fields, the clamped focus cursor, and the validation
// result for exactly those fields.
type Snapshot struct {
	Fields []formdef.Field `json:"fields"`
	Cursor int             `json:"cursor"`
	Result Result          `json:"result"`
}

// FieldIDs returns the ids of the visible fields in order.
func (s Snapshot) FieldIDs() []string {
	ids := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		ids[i] = f.ID
	}
	return ids
}

// Contains reports whether the visible subset includes the field id.
func (s Snapshot) Contains(id string) bool {
	for _, f := range s.Fields {
		if f.ID == id {
			return true
		}
	}
	return false
}
