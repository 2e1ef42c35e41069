package render

import (
	theme "github.com/goliatone/go-theme"
)

// RenderOptions describe per-request data that renderers can use to
// customise their output without touching the view itself.
type RenderOptions struct {
	// Action overrides the submission URL. Empty means the renderer's
	// default, normally POST /forms/{id}/submissions.
	Action string
	// Method overrides the HTTP method used for submission. Renderers
	// translate verbs a browser form cannot express (PATCH/PUT/DELETE)
	// into POST plus a hidden _method input.
	Method string
	// Errors carries server-side validation feedback keyed by field id.
	// Renderers merge these over the view's own result; the server
	// message wins when both exist for a field.
	Errors map[string]string
	// FormErrors are messages not tied to any field, shown above the
	// form chrome.
	FormErrors []string
	// Hidden adds extra hidden inputs (CSRF tokens, campaign markers)
	// by input name.
	Hidden map[string]string
	// Theme carries resolved theme configuration: partial overrides,
	// design tokens, CSS variables, and the asset resolver.
	Theme *theme.RendererConfig
	// Locale and Translator localize labels, descriptions, and
	// placeholders through *Key hints in field metadata.
	Locale     string
	Translator Translator
	// OnMissing controls what renders when a translation lookup fails.
	OnMissing MissingTranslationHandler
}

// FieldError returns the message to show for a field: the server-side
// override when present, the view's own validation message otherwise.
func (o RenderOptions) FieldError(view View, id string) string {
	if msg, ok := o.Errors[id]; ok && msg != "" {
		return msg
	}
	return view.Error(id)
}
