package classic

import (
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
)

func controlID(fieldID string) string {
	trimmed := strings.TrimSpace(fieldID)
	if trimmed == "" {
		return ""
	}
	return "ff-" + trimmed
}

func (r *Renderer) fieldHTML(f formdef.Field, view render.View, opts render.RenderOptions) string {
	if f.Type.Static() {
		return r.staticHTML(f)
	}
	if f.Type == formdef.FieldTypeHidden {
		return hiddenFieldHTML(f, view)
	}
	return r.answerableHTML(f, view, opts)
}

func (r *Renderer) staticHTML(f formdef.Field) string {
	var b strings.Builder

	text := f.Content
	if text == "" {
		text = f.Label
	}

	switch f.Type {
	case formdef.FieldTypeHeading:
		b.WriteString(`<h2 class="`)
		b.WriteString(html.EscapeString(r.chrome.Static))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(text))
		b.WriteString(`</h2>`)
	case formdef.FieldTypeParagraph:
		b.WriteString(`<p class="`)
		b.WriteString(html.EscapeString(r.chrome.Static))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(text))
		b.WriteString(`</p>`)
	case formdef.FieldTypeDivider:
		b.WriteString(`<hr class="`)
		b.WriteString(html.EscapeString(r.chrome.Static))
		b.WriteString(`">`)
	case formdef.FieldTypeSpacer:
		b.WriteString(`<div class="`)
		b.WriteString(html.EscapeString(r.chrome.Static))
		b.WriteString(`" aria-hidden="true"></div>`)
	case formdef.FieldTypeHTML:
		// Authored markup passes through a sanitizer; everything else
		// on this page is escaped at write time.
		b.WriteString(`<div class="`)
		b.WriteString(html.EscapeString(r.chrome.Static))
		b.WriteString(`">`)
		b.WriteString(sanitizeHTML(f.Content))
		b.WriteString(`</div>`)
	}
	return b.String()
}

func hiddenFieldHTML(f formdef.Field, view render.View) string {
	var b strings.Builder
	b.WriteString(`<input type="hidden" name="`)
	b.WriteString(html.EscapeString(f.ID))
	b.WriteString(`" id="`)
	b.WriteString(html.EscapeString(controlID(f.ID)))
	b.WriteString(`" value="`)
	b.WriteString(html.EscapeString(view.Answers.String(f.ID)))
	b.WriteString(`">`)
	return b.String()
}

func (r *Renderer) answerableHTML(f formdef.Field, view render.View, opts render.RenderOptions) string {
	errMsg := opts.FieldError(view, f.ID)

	var b strings.Builder
	b.Grow(512)

	b.WriteString(`<div class="`)
	b.WriteString(html.EscapeString(r.chrome.Field))
	b.WriteString(`" data-field-id="`)
	b.WriteString(html.EscapeString(f.ID))
	b.WriteString(`" data-field-type="`)
	b.WriteString(html.EscapeString(string(f.Type)))
	b.WriteString(`"`)
	if errMsg != "" {
		b.WriteString(` data-invalid="true"`)
	}
	b.WriteString(`>`)

	groupControl := f.Type == formdef.FieldTypeCheckbox ||
		f.Type == formdef.FieldTypeRadio ||
		f.Type == formdef.FieldTypeRating

	if f.Type != formdef.FieldTypeConsent {
		b.WriteString(`<label class="`)
		b.WriteString(html.EscapeString(r.chrome.Label))
		b.WriteString(`"`)
		if !groupControl {
			b.WriteString(` for="`)
			b.WriteString(html.EscapeString(controlID(f.ID)))
			b.WriteString(`"`)
		}
		b.WriteString(`>`)
		b.WriteString(html.EscapeString(f.DisplayLabel()))
		if f.Required {
			b.WriteString(`<span aria-hidden="true">*</span>`)
		}
		b.WriteString(`</label>`)
	}

	b.WriteString(r.controlHTML(f, view, errMsg != ""))

	if f.Description != "" {
		b.WriteString(`<small id="`)
		b.WriteString(html.EscapeString(controlID(f.ID) + "-help"))
		b.WriteString(`" class="`)
		b.WriteString(html.EscapeString(r.chrome.Help))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(f.Description))
		b.WriteString(`</small>`)
	}

	if errMsg != "" {
		b.WriteString(`<p id="`)
		b.WriteString(html.EscapeString(controlID(f.ID) + "-error"))
		b.WriteString(`" class="`)
		b.WriteString(html.EscapeString(r.chrome.Error))
		b.WriteString(`" role="alert">`)
		b.WriteString(html.EscapeString(errMsg))
		b.WriteString(`</p>`)
	}

	b.WriteString(`</div>`)
	return b.String()
}

func (r *Renderer) controlHTML(f formdef.Field, view render.View, invalid bool) string {
	switch f.Type {
	case formdef.FieldTypeTextarea:
		return r.textareaHTML(f, view, invalid)
	case formdef.FieldTypeSelect:
		return r.selectHTML(f, view, invalid)
	case formdef.FieldTypeCheckbox:
		return r.choiceGroupHTML(f, view, "checkbox")
	case formdef.FieldTypeRadio:
		return r.choiceGroupHTML(f, view, "radio")
	case formdef.FieldTypeRating:
		return r.ratingHTML(f, view)
	case formdef.FieldTypeFile:
		return r.fileHTML(f, invalid)
	case formdef.FieldTypeConsent:
		return r.consentHTML(f, view)
	default:
		return r.inputHTML(f, view, invalid)
	}
}

// inputType maps answerable field types onto native input types.
var inputType = map[formdef.FieldType]string{
	formdef.FieldTypeText:     "text",
	formdef.FieldTypeEmail:    "email",
	formdef.FieldTypeURL:      "url",
	formdef.FieldTypePhone:    "tel",
	formdef.FieldTypeNumber:   "number",
	formdef.FieldTypeDate:     "date",
	formdef.FieldTypeDateTime: "datetime-local",
}

func (r *Renderer) inputHTML(f formdef.Field, view render.View, invalid bool) string {
	kind, ok := inputType[f.Type]
	if !ok {
		kind = "text"
	}

	var b strings.Builder
	b.WriteString(`<input class="`)
	b.WriteString(html.EscapeString(r.chrome.Control))
	b.WriteString(`" type="`)
	b.WriteString(kind)
	b.WriteString(`"`)
	writeAttr(&b, "id", controlID(f.ID))
	writeAttr(&b, "name", f.ID)
	if value := view.Answers.String(f.ID); value != "" {
		writeAttr(&b, "value", value)
	}
	writeAttr(&b, "placeholder", f.Placeholder)
	writeCommonAttrs(&b, f, invalid)
	if f.Type == formdef.FieldTypeNumber && f.Validation != nil {
		if f.Validation.Min != nil {
			writeAttr(&b, "min", formatNumber(*f.Validation.Min))
		}
		if f.Validation.Max != nil {
			writeAttr(&b, "max", formatNumber(*f.Validation.Max))
		}
	}
	if textLike(f.Type) && f.Validation != nil {
		if f.Validation.Min != nil {
			writeAttr(&b, "minlength", formatNumber(*f.Validation.Min))
		}
		if f.Validation.Max != nil {
			writeAttr(&b, "maxlength", formatNumber(*f.Validation.Max))
		}
	}
	b.WriteString(`>`)
	return b.String()
}

func (r *Renderer) textareaHTML(f formdef.Field, view render.View, invalid bool) string {
	var b strings.Builder
	b.WriteString(`<textarea class="`)
	b.WriteString(html.EscapeString(r.chrome.Control))
	b.WriteString(`"`)
	writeAttr(&b, "id", controlID(f.ID))
	writeAttr(&b, "name", f.ID)
	writeAttr(&b, "placeholder", f.Placeholder)
	writeCommonAttrs(&b, f, invalid)
	if f.Validation != nil {
		if f.Validation.Min != nil {
			writeAttr(&b, "minlength", formatNumber(*f.Validation.Min))
		}
		if f.Validation.Max != nil {
			writeAttr(&b, "maxlength", formatNumber(*f.Validation.Max))
		}
	}
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(view.Answers.String(f.ID)))
	b.WriteString(`</textarea>`)
	return b.String()
}

func (r *Renderer) selectHTML(f formdef.Field, view render.View, invalid bool) string {
	current := view.Answers.String(f.ID)

	var b strings.Builder
	b.WriteString(`<select class="`)
	b.WriteString(html.EscapeString(r.chrome.Control))
	b.WriteString(`"`)
	writeAttr(&b, "id", controlID(f.ID))
	writeAttr(&b, "name", f.ID)
	writeCommonAttrs(&b, f, invalid)
	b.WriteString(`>`)

	b.WriteString(`<option value="">`)
	if f.Placeholder != "" {
		b.WriteString(html.EscapeString(f.Placeholder))
	}
	b.WriteString(`</option>`)

	for _, option := range f.Options {
		b.WriteString(`<option`)
		writeAttr(&b, "value", option)
		if option == current {
			b.WriteString(` selected`)
		}
		b.WriteString(`>`)
		b.WriteString(html.EscapeString(option))
		b.WriteString(`</option>`)
	}
	b.WriteString(`</select>`)
	return b.String()
}

func (r *Renderer) choiceGroupHTML(f formdef.Field, view render.View, kind string) string {
	selected := view.Answers.Strings(f.ID)

	var b strings.Builder
	b.WriteString(`<fieldset class="`)
	b.WriteString(html.EscapeString(r.chrome.Control))
	b.WriteString(`"`)
	writeAttr(&b, "id", controlID(f.ID))
	b.WriteString(`>`)

	for i, option := range f.Options {
		optionID := controlID(f.ID) + "-" + strconv.Itoa(i)
		b.WriteString(`<label`)
		writeAttr(&b, "for", optionID)
		b.WriteString(`><input type="`)
		b.WriteString(kind)
		b.WriteString(`"`)
		writeAttr(&b, "id", optionID)
		writeAttr(&b, "name", f.ID)
		writeAttr(&b, "value", option)
		if containsOption(selected, option) {
			b.WriteString(` checked`)
		}
		b.WriteString(`>`)
		b.WriteString(html.EscapeString(option))
		b.WriteString(`</label>`)
	}
	b.WriteString(`</fieldset>`)
	return b.String()
}

func (r *Renderer) ratingHTML(f formdef.Field, view render.View) string {
	max := 5
	if f.Validation != nil && f.Validation.Max != nil && *f.Validation.Max >= 1 {
		max = int(*f.Validation.Max)
	}
	current, hasCurrent := view.Answers.Number(f.ID)

	var b strings.Builder
	b.WriteString(`<fieldset class="`)
	b.WriteString(html.EscapeString(r.chrome.Control))
	b.WriteString(`" data-rating-max="`)
	b.WriteString(strconv.Itoa(max))
	b.WriteString(`"`)
	writeAttr(&b, "id", controlID(f.ID))
	b.WriteString(`>`)

	for value := 1; value <= max; value++ {
		optionID := controlID(f.ID) + "-" + strconv.Itoa(value)
		b.WriteString(`<label`)
		writeAttr(&b, "for", optionID)
		b.WriteString(`><input type="radio"`)
		writeAttr(&b, "id", optionID)
		writeAttr(&b, "name", f.ID)
		writeAttr(&b, "value", strconv.Itoa(value))
		if hasCurrent && int(current) == value {
			b.WriteString(` checked`)
		}
		b.WriteString(`>`)
		b.WriteString(strconv.Itoa(value))
		b.WriteString(`</label>`)
	}
	b.WriteString(`</fieldset>`)
	return b.String()
}

func (r *Renderer) fileHTML(f formdef.Field, invalid bool) string {
	var b strings.Builder
	b.WriteString(`<input class="`)
	b.WriteString(html.EscapeString(r.chrome.Control))
	b.WriteString(`" type="file"`)
	writeAttr(&b, "id", controlID(f.ID))
	writeAttr(&b, "name", f.ID)
	writeCommonAttrs(&b, f, invalid)
	if f.Validation != nil {
		if accept := acceptList(f.Validation.Pattern); accept != "" {
			writeAttr(&b, "accept", accept)
		}
		if f.Validation.Max != nil {
			writeAttr(&b, "data-max-mb", formatNumber(*f.Validation.Max))
		}
	}
	b.WriteString(`>`)
	return b.String()
}

func (r *Renderer) consentHTML(f formdef.Field, view render.View) string {
	checked := view.Answers.Bool(f.ID)

	var b strings.Builder
	b.WriteString(`<label class="`)
	b.WriteString(html.EscapeString(r.chrome.Label))
	b.WriteString(`"`)
	writeAttr(&b, "for", controlID(f.ID))
	b.WriteString(`><input type="checkbox" value="true"`)
	writeAttr(&b, "id", controlID(f.ID))
	writeAttr(&b, "name", f.ID)
	if checked {
		b.WriteString(` checked`)
	}
	if f.Required {
		b.WriteString(` required`)
	}
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(f.DisplayLabel()))
	if f.Required {
		b.WriteString(`<span aria-hidden="true">*</span>`)
	}
	b.WriteString(`</label>`)
	return b.String()
}

func writeCommonAttrs(b *strings.Builder, f formdef.Field, invalid bool) {
	if f.Required {
		b.WriteString(` required`)
	}
	if invalid {
		b.WriteString(` aria-invalid="true"`)
		b.WriteString(` aria-describedby="`)
		b.WriteString(html.EscapeString(controlID(f.ID) + "-error"))
		b.WriteString(`"`)
	} else if f.Description != "" {
		b.WriteString(` aria-describedby="`)
		b.WriteString(html.EscapeString(controlID(f.ID) + "-help"))
		b.WriteString(`"`)
	}
}

func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(` `)
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteString(`"`)
}

func textLike(t formdef.FieldType) bool {
	return t == formdef.FieldTypeText || t == formdef.FieldTypeTextarea
}

func containsOption(values []string, option string) bool {
	for _, v := range values {
		if v == option {
			return true
		}
	}
	return false
}

// acceptList turns the comma-separated extension pattern into the
// normalized accept attribute: lowercased, dot-prefixed entries.
func acceptList(pattern string) string {
	entries := strings.Split(pattern, ",")
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		ext := strings.ToLower(strings.TrimSpace(entry))
		ext = strings.TrimPrefix(ext, "*")
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return strings.Join(out, ",")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}
