package flow

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

const (
	msgEmail       = "Please enter a valid email address"
	msgURL         = "Please enter a valid URL"
	msgFileInvalid = "Please upload a valid file"

	defaultFileSizeMB = 10
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateVisible resolves the visible subset with the same options as
// VisibleFields and checks it: required fields must have a non-empty answer,
// and present answers must satisfy their type's format and bounds. Fields
// outside the visible subset are never checked, so an error map from a
// previous call must be replaced, not merged. Each field yields at most one
// message; the result is never an error and never panics on malformed
// answers.
func ValidateVisible(fields []formdef.Field, answers formdef.AnswerMap, opts ...Option) Result {
	return validateVisible(visibleFields(fields, answers, newConfig(opts)), answers)
}

func validateVisible(visible []formdef.Field, answers formdef.AnswerMap) Result {
	errs := make(map[string]string)
	for _, field := range visible {
		if msg := checkField(field, answers); msg != "" {
			errs[field.ID] = msg
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func checkField(field formdef.Field, answers formdef.AnswerMap) string {
	if field.Type.Static() || field.Type == formdef.FieldTypeHidden {
		return ""
	}
	if answers.Empty(field.ID) {
		if field.Required {
			return field.DisplayLabel() + " is required"
		}
		return ""
	}
	if check := typeChecks[field.Type]; check != nil {
		return check(field, answers)
	}
	return ""
}

type checkFunc func(formdef.Field, formdef.AnswerMap) string

// typeChecks lists every answerable type so the dispatch stays visibly
// exhaustive. A nil entry means the type has no format or bounds check
// beyond required.
var typeChecks = map[formdef.FieldType]checkFunc{
	formdef.FieldTypeText:     checkTextBounds,
	formdef.FieldTypeTextarea: checkTextBounds,
	formdef.FieldTypeEmail:    checkEmail,
	formdef.FieldTypeURL:      checkURL,
	formdef.FieldTypePhone:    nil,
	formdef.FieldTypeNumber:   checkNumberBounds,
	formdef.FieldTypeDate:     nil,
	formdef.FieldTypeDateTime: nil,
	formdef.FieldTypeSelect:   nil,
	formdef.FieldTypeCheckbox: nil,
	formdef.FieldTypeRadio:    nil,
	formdef.FieldTypeRating:   checkNumberBounds,
	formdef.FieldTypeFile:     checkFile,
	formdef.FieldTypeConsent:  nil,
	formdef.FieldTypeHidden:   nil,
}

func checkEmail(field formdef.Field, answers formdef.AnswerMap) string {
	if !emailShape.MatchString(answers.String(field.ID)) {
		return msgEmail
	}
	return ""
}

func checkURL(field formdef.Field, answers formdef.AnswerMap) string {
	parsed, err := url.Parse(answers.String(field.ID))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return msgURL
	}
	return ""
}

func checkFile(field formdef.Field, answers formdef.AnswerMap) string {
	file, ok := answers.File(field.ID)
	if !ok {
		return msgFileInvalid
	}

	maxMB := float64(defaultFileSizeMB)
	if field.Validation != nil && field.Validation.Max != nil {
		maxMB = *field.Validation.Max
	}
	if float64(file.Size) > maxMB*1024*1024 {
		return "File size must not exceed " + formatBound(maxMB) + "MB"
	}

	if field.Validation != nil {
		if pattern := strings.TrimSpace(field.Validation.Pattern); pattern != "" {
			if !extensionAllowed(file.Name, pattern) {
				return "File type must be one of: " + pattern
			}
		}
	}
	return ""
}

// extensionAllowed matches the filename extension against a comma-separated
// allow-list, case-insensitively. Entries may be written as "pdf", ".pdf",
// or "*.pdf".
func extensionAllowed(name, pattern string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return false
	}
	for _, entry := range strings.Split(pattern, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		entry = strings.TrimPrefix(entry, "*")
		entry = strings.TrimPrefix(entry, ".")
		if entry != "" && entry == ext {
			return true
		}
	}
	return false
}

func checkNumberBounds(field formdef.Field, answers formdef.AnswerMap) string {
	value, ok := answers.Number(field.ID)
	if !ok {
		return field.DisplayLabel() + " must be a number"
	}
	v := field.Validation
	if v == nil {
		return ""
	}
	if v.Min != nil && value < *v.Min {
		return field.DisplayLabel() + " must be at least " + formatBound(*v.Min)
	}
	if v.Max != nil && value > *v.Max {
		return field.DisplayLabel() + " must be at most " + formatBound(*v.Max)
	}
	return ""
}

func checkTextBounds(field formdef.Field, answers formdef.AnswerMap) string {
	v := field.Validation
	if v == nil {
		return ""
	}
	length := float64(utf8.RuneCountInString(answers.String(field.ID)))
	if v.Min != nil && length < *v.Min {
		return field.DisplayLabel() + " must be at least " + formatBound(*v.Min) + " characters"
	}
	if v.Max != nil && length > *v.Max {
		return field.DisplayLabel() + " must be at most " + formatBound(*v.Max) + " characters"
	}
	return ""
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
