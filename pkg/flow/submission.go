package flow

import "github.com/goliatone/go-formflow/pkg/formdef"

// FilterAnswers returns a fresh answer map containing only the entries whose
// field is in the currently visible subset and answerable. Stale answers for
// fields that have since become hidden never make it into the result, so
// submission payloads cannot leak values for fields the user never saw.
func FilterAnswers(fields []formdef.Field, answers formdef.AnswerMap, opts ...Option) formdef.AnswerMap {
	visible := visibleFields(fields, answers, newConfig(opts))
	out := make(formdef.AnswerMap, len(visible))
	for _, field := range visible {
		if !field.Type.Answerable() {
			continue
		}
		if value, ok := answers[field.ID]; ok {
			out[field.ID] = value
		}
	}
	return out
}
