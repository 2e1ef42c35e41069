package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

// ErrMissingTranslator signals that localization was requested without a
// Translator configured.
var ErrMissingTranslator = errors.New("render: translator is required")

// Translator resolves a message key for a locale. Implementations may
// interpolate args into the resolved message.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides what renders when a translation
// lookup fails. It receives the original error, ErrMissingTranslator
// when no translator was configured at all.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_, key string, args []any, _ error) string {
	for _, arg := range args {
		if m, ok := arg.(map[string]any); ok {
			if fallback, ok := m["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

const (
	titleKeyHint       = "titleKey"
	submitLabelKeyHint = "submitLabelKey"

	labelKeyHint       = "labelKey"
	descriptionKeyHint = "descriptionKey"
	placeholderKeyHint = "placeholderKey"
	contentKeyHint     = "contentKey"
)

// LocalizeView translates any *Key hints in the view's definition and
// field metadata into localized strings. The view's field slice holds
// copies, so originals are untouched; a definition with hints is swapped
// for a localized clone rather than mutated.
//
// This is best-effort: fields without hints keep their authored text and
// lookup failures route through opts.OnMissing.
func LocalizeView(view *View, opts RenderOptions) {
	if view == nil {
		return
	}

	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	if def := view.Definition; def != nil && len(def.Metadata) > 0 {
		titleKey := strings.TrimSpace(def.Metadata[titleKeyHint])
		submitKey := strings.TrimSpace(def.Metadata[submitLabelKeyHint])
		if titleKey != "" || submitKey != "" {
			clone := *def
			if titleKey != "" {
				clone.Title = translate(opts.Locale, titleKey, def.Title, opts.Translator, onMissing)
			}
			if submitKey != "" {
				clone.SubmitLabel = translate(opts.Locale, submitKey, def.SubmitLabel, opts.Translator, onMissing)
			}
			view.Definition = &clone
		}
	}

	for i := range view.Fields {
		localizeField(&view.Fields[i], opts.Locale, opts.Translator, onMissing)
	}
}

func localizeField(field *formdef.Field, locale string, t Translator, onMissing MissingTranslationHandler) {
	if field == nil || len(field.Metadata) == 0 {
		return
	}

	if key := strings.TrimSpace(field.Metadata[labelKeyHint]); key != "" {
		field.Label = translate(locale, key, field.Label, t, onMissing)
	}
	if key := strings.TrimSpace(field.Metadata[descriptionKeyHint]); key != "" {
		field.Description = translate(locale, key, field.Description, t, onMissing)
	}
	if key := strings.TrimSpace(field.Metadata[placeholderKeyHint]); key != "" {
		field.Placeholder = translate(locale, key, field.Placeholder, t, onMissing)
	}
	if key := strings.TrimSpace(field.Metadata[contentKeyHint]); key != "" {
		field.Content = translate(locale, key, field.Content, t, onMissing)
	}
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	args := []any{map[string]any{"default": fallback}}
	if t == nil {
		return onMissing(locale, key, args, ErrMissingTranslator)
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, args, err)
}
