// Package canvas renders a view as a JSON props payload for
// absolutely-positioned form clients. Every visible field becomes an
// element with a layout rectangle; a drag-and-drop editor or a
// positioned landing-page embed consumes the payload and posts answers
// back itself.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
)

// Option customises the renderer configuration.
type Option func(*config)

type config struct {
	indent string
}

// WithIndent pretty-prints the payload with the given indent string.
// The default output is compact.
func WithIndent(indent string) Option {
	return func(cfg *config) {
		cfg.indent = indent
	}
}

// Frame is the layout rectangle of one element. Fields without an
// authored layout sit at the zero frame and keep their authored order.
type Frame struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
	Z int     `json:"z"`
}

// Element is one positioned form element.
type Element struct {
	ID          string              `json:"id"`
	Type        formdef.FieldType   `json:"type"`
	Label       string              `json:"label,omitempty"`
	Placeholder string              `json:"placeholder,omitempty"`
	Description string              `json:"description,omitempty"`
	Required    bool                `json:"required,omitempty"`
	Options     []string            `json:"options,omitempty"`
	Content     string              `json:"content,omitempty"`
	Validation  *formdef.Validation `json:"validation,omitempty"`
	Frame       Frame               `json:"frame"`
}

type formHeader struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SubmitLabel string `json:"submitLabel,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Action      string `json:"action,omitempty"`
	Method      string `json:"method,omitempty"`
}

type payload struct {
	Form     formHeader        `json:"form"`
	Elements []Element         `json:"elements"`
	Values   formdef.AnswerMap `json:"values"`
	Errors   map[string]string `json:"errors"`
}

// Renderer emits the canvas JSON payload for one view.
type Renderer struct {
	indent string
}

// New constructs a canvas renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return &Renderer{indent: cfg.indent}, nil
}

func (r *Renderer) Name() string {
	return "canvas"
}

func (r *Renderer) ContentType() string {
	return "application/json"
}

// Render projects the visible fields into positioned elements sorted by
// z-index, then y, then x, with authored order breaking full ties.
// Hidden-type fields carry no rectangle and appear only through Values.
func (r *Renderer) Render(_ context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	render.LocalizeView(&view, opts)

	elements := make([]Element, 0, len(view.Fields))
	for _, field := range view.Fields {
		if field.Type == formdef.FieldTypeHidden {
			continue
		}
		elements = append(elements, toElement(field))
	}
	sortElements(elements)

	values := view.Answers
	if values == nil {
		values = formdef.AnswerMap{}
	}

	doc := payload{
		Form:     headerFor(view, opts),
		Elements: elements,
		Values:   values,
		Errors:   mergedErrors(view, opts),
	}

	var (
		out []byte
		err error
	)
	if r.indent != "" {
		out, err = json.MarshalIndent(doc, "", r.indent)
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("canvas renderer: marshal payload: %w", err)
	}
	return out, nil
}

func toElement(field formdef.Field) Element {
	elem := Element{
		ID:          field.ID,
		Type:        field.Type,
		Label:       field.Label,
		Placeholder: field.Placeholder,
		Description: field.Description,
		Required:    field.Required,
		Options:     field.Options,
		Content:     field.Content,
		Validation:  field.Validation,
	}
	if field.Layout != nil {
		elem.Frame = Frame{
			X: field.Layout.X,
			Y: field.Layout.Y,
			W: field.Layout.W,
			H: field.Layout.H,
			Z: field.Layout.Z,
		}
	}
	return elem
}

func sortElements(elements []Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i].Frame, elements[j].Frame
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

func headerFor(view render.View, opts render.RenderOptions) formHeader {
	header := formHeader{
		Action: opts.Action,
		Method: strings.ToUpper(strings.TrimSpace(opts.Method)),
	}
	if header.Method == "" {
		header.Method = http.MethodPost
	}

	def := view.Definition
	if def == nil {
		return header
	}
	header.ID = def.ID
	header.Title = def.Title
	header.Description = def.Description
	header.SubmitLabel = def.SubmitLabel
	header.RedirectURL = def.RedirectURL
	if header.Action == "" && def.ID != "" {
		header.Action = "/forms/" + def.ID + "/submissions"
	}
	return header
}

// mergedErrors folds server-side messages over the view's own result;
// the server message wins when both exist for a field.
func mergedErrors(view render.View, opts render.RenderOptions) map[string]string {
	out := make(map[string]string, len(view.Result.Errors)+len(opts.Errors))
	for id, msg := range view.Result.Errors {
		out[id] = msg
	}
	for id, msg := range opts.Errors {
		if msg != "" {
			out[id] = msg
		}
	}
	return out
}
