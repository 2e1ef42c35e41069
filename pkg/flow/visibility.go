package flow

import (
	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// VisibleFields iterates fields in authored order and returns the subset
// whose visibility predicates hold against the current answers, truncated at
// the configured cap. Static content obeys the same predicate test as
// answerable fields and counts toward the cap. The result preserves authored
// order and is freshly allocated on every call.
func VisibleFields(fields []formdef.Field, answers formdef.AnswerMap, opts ...Option) []formdef.Field {
	return visibleFields(fields, answers, newConfig(opts))
}

func visibleFields(fields []formdef.Field, answers formdef.AnswerMap, cfg config) []formdef.Field {
	visible := make([]formdef.Field, 0, len(fields))
	for _, field := range fields {
		if cfg.capSet && cfg.cap > 0 && len(visible) >= cfg.cap {
			break
		}
		if !fieldVisible(field, answers, cfg.evaluator) {
			continue
		}
		visible = append(visible, field)
	}
	return visible
}

// fieldVisible applies the tagged condition and the rule string
// conjunctively. A rule that fails to evaluate hides its field; definition
// lint rejects such rules before they normally reach the engine.
func fieldVisible(field formdef.Field, answers formdef.AnswerMap, eval visibility.Evaluator) bool {
	if field.Visibility != nil && !field.Visibility.Eval(answers) {
		return false
	}
	if field.Rule != "" {
		ok, err := eval.Eval(field.ID, field.Rule, visibility.Context{Answers: answers})
		if err != nil || !ok {
			return false
		}
	}
	return true
}
