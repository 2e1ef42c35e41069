package formdef

// FieldType enumerates the field kinds a definition may use. The set is
// closed: Validate rejects definitions containing anything else.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeEmail    FieldType = "email"
	FieldTypeURL      FieldType = "url"
	FieldTypePhone    FieldType = "phone"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeRating   FieldType = "rating"
	FieldTypeFile     FieldType = "file"
	FieldTypeConsent  FieldType = "consent"

	FieldTypeHeading   FieldType = "heading"
	FieldTypeParagraph FieldType = "paragraph"
	FieldTypeDivider   FieldType = "divider"
	FieldTypeSpacer    FieldType = "spacer"
	FieldTypeHTML      FieldType = "html"
	FieldTypeHidden    FieldType = "hidden"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeText:      {},
	FieldTypeTextarea:  {},
	FieldTypeEmail:     {},
	FieldTypeURL:       {},
	FieldTypePhone:     {},
	FieldTypeNumber:    {},
	FieldTypeDate:      {},
	FieldTypeDateTime:  {},
	FieldTypeSelect:    {},
	FieldTypeCheckbox:  {},
	FieldTypeRadio:     {},
	FieldTypeRating:    {},
	FieldTypeFile:      {},
	FieldTypeConsent:   {},
	FieldTypeHeading:   {},
	FieldTypeParagraph: {},
	FieldTypeDivider:   {},
	FieldTypeSpacer:    {},
	FieldTypeHTML:      {},
	FieldTypeHidden:    {},
}

// Known reports whether t belongs to the closed enumeration.
func (t FieldType) Known() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// Static reports whether t is presentational content: rendered, never
// answered, never validated. Hidden is not static; it carries a value even
// though the user never sees it.
func (t FieldType) Static() bool {
	switch t {
	case FieldTypeHeading, FieldTypeParagraph, FieldTypeDivider, FieldTypeSpacer, FieldTypeHTML:
		return true
	}
	return false
}

// Answerable reports whether t stores a value in the AnswerMap.
func (t FieldType) Answerable() bool {
	return t.Known() && !t.Static()
}

// HasOptions reports whether t renders from an authored option list.
func (t FieldType) HasOptions() bool {
	switch t {
	case FieldTypeSelect, FieldTypeCheckbox, FieldTypeRadio:
		return true
	}
	return false
}

// Validation carries the optional per-field constraint bounds. Min and Max are
// numeric bounds for number and rating fields, character-length bounds for
// text and textarea, and Max is the size bound in megabytes for file fields.
// Pattern is a comma-separated extension allow-list for file fields and an
// informational format hint everywhere else.
type Validation struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Layout positions a field on the canvas renderer surface. Z breaks paint
// order ties; higher values paint later.
type Layout struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w,omitempty" yaml:"w,omitempty"`
	H float64 `json:"h,omitempty" yaml:"h,omitempty"`
	Z int     `json:"z,omitempty" yaml:"z,omitempty"`
}

// Field models a single entry in a form definition. The engine reads ID,
// Type, Label, Required, Validation, Visibility, and Rule; the remaining
// fields exist for renderers.
type Field struct {
	ID          string            `json:"id" yaml:"id"`
	Type        FieldType         `json:"type" yaml:"type"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Validation  *Validation       `json:"validation,omitempty" yaml:"validation,omitempty"`
	Visibility  *Condition        `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Rule        string            `json:"rule,omitempty" yaml:"rule,omitempty"`
	Options     []string          `json:"options,omitempty" yaml:"options,omitempty"`
	Content     string            `json:"content,omitempty" yaml:"content,omitempty"`
	Layout      *Layout           `json:"layout,omitempty" yaml:"layout,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// DisplayLabel returns the label, falling back to the field id so error
// messages and prompts always have a subject.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// Definition is a complete authored form: ordered fields plus the metadata
// the hosted surfaces need. MaxProgressiveFields caps how many fields may be
// visible at once in conversational mode; zero means unlimited.
type Definition struct {
	ID                   string            `json:"id" yaml:"id"`
	Title                string            `json:"title,omitempty" yaml:"title,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	SubmitLabel          string            `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	RedirectURL          string            `json:"redirectUrl,omitempty" yaml:"redirectUrl,omitempty"`
	MaxProgressiveFields int               `json:"maxProgressiveFields,omitempty" yaml:"maxProgressiveFields,omitempty"`
	Fields               []Field           `json:"fields" yaml:"fields"`
	Metadata             map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Field returns the field with the given id.
func (d *Definition) Field(id string) (Field, bool) {
	if d == nil {
		return Field{}, false
	}
	for _, f := range d.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Clone returns a deep copy so callers can decorate a definition without
// mutating the stored original.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := *d
	out.Fields = make([]Field, len(d.Fields))
	for i, f := range d.Fields {
		out.Fields[i] = cloneField(f)
	}
	out.Metadata = cloneStringMap(d.Metadata)
	return &out
}

func cloneField(f Field) Field {
	out := f
	if f.Validation != nil {
		v := *f.Validation
		if f.Validation.Min != nil {
			min := *f.Validation.Min
			v.Min = &min
		}
		if f.Validation.Max != nil {
			max := *f.Validation.Max
			v.Max = &max
		}
		out.Validation = &v
	}
	if f.Visibility != nil {
		c := *f.Visibility
		out.Visibility = &c
	}
	if f.Layout != nil {
		l := *f.Layout
		out.Layout = &l
	}
	if len(f.Options) > 0 {
		out.Options = append([]string(nil), f.Options...)
	}
	out.Metadata = cloneStringMap(f.Metadata)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
