package classic

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
	rendertemplate "github.com/goliatone/go-formflow/pkg/render/template"
	"github.com/goliatone/go-formflow/pkg/render/template/pongo"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	chrome           ChromeClasses
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithChromeClasses overrides the CSS classes used for form chrome.
func WithChromeClasses(chrome ChromeClasses) Option {
	return func(cfg *config) {
		cfg.chrome = cfg.chrome.merge(chrome)
	}
}

// Renderer produces a complete HTML document fragment for one view: the
// visible fields in order, inline validation messages, hidden inputs,
// and the submit chrome.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	chrome    ChromeClasses
}

// New constructs the classic renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS: TemplatesFS(),
		chrome:     DefaultChromeClasses(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".html"),
		)
		if err != nil {
			return nil, fmt.Errorf("classic renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, chrome: cfg.chrome}, nil
}

func (r *Renderer) Name() string {
	return "classic"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(_ context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("classic renderer: template renderer is nil")
	}

	render.LocalizeView(&view, opts)

	chunks := make([]string, 0, len(view.Fields))
	for _, field := range view.Fields {
		chunks = append(chunks, r.fieldHTML(field, view, opts))
	}

	data := map[string]any{
		"form":        formContext(view.Definition),
		"chrome":      r.chrome.contextMap(),
		"fields":      chunks,
		"hidden":      hiddenInputs(view, opts),
		"form_errors": opts.FormErrors,
		"action":      submitAction(view, opts),
		"method":      submitMethod(opts),
		"multipart":   hasFileField(view.Fields),
		"valid":       strconv.FormatBool(view.Result.Valid),
		"submit":      submitLabel(view.Definition),
		"theme_css":   themeCSS(opts),
	}

	result, err := r.templates.RenderTemplate("form", data)
	if err != nil {
		return nil, fmt.Errorf("classic renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func formContext(def *formdef.Definition) map[string]any {
	ctx := map[string]any{
		"id":          "",
		"title":       "",
		"description": "",
	}
	if def == nil {
		return ctx
	}
	ctx["id"] = def.ID
	ctx["title"] = def.Title
	ctx["description"] = def.Description
	return ctx
}

func submitAction(view render.View, opts render.RenderOptions) string {
	if opts.Action != "" {
		return opts.Action
	}
	if view.Definition != nil && view.Definition.ID != "" {
		return "/forms/" + view.Definition.ID + "/submissions"
	}
	return ""
}

// submitMethod keeps the form on a browser-native verb; anything else
// turns into POST with a hidden _method input added by hiddenInputs.
func submitMethod(opts render.RenderOptions) string {
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	switch method {
	case "", "POST":
		return "post"
	case "GET":
		return "get"
	default:
		return "post"
	}
}

func methodNeedsOverride(opts render.RenderOptions) bool {
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	switch method {
	case "", "GET", "POST":
		return false
	default:
		return true
	}
}

func hiddenInputs(view render.View, opts render.RenderOptions) []map[string]string {
	merged := render.MergeHiddenFields(opts.Hidden)
	if methodNeedsOverride(opts) {
		merged = render.MergeHiddenFields(merged, render.MethodOverride(opts.Method))
	}

	sorted := render.SortedHiddenFields(merged)
	out := make([]map[string]string, 0, len(sorted))
	for _, field := range sorted {
		out = append(out, map[string]string{"name": field.Name, "value": field.Value})
	}
	return out
}

func hasFileField(fields []formdef.Field) bool {
	for _, f := range fields {
		if f.Type == formdef.FieldTypeFile {
			return true
		}
	}
	return false
}

func submitLabel(def *formdef.Definition) string {
	if def != nil && strings.TrimSpace(def.SubmitLabel) != "" {
		return def.SubmitLabel
	}
	return "Submit"
}

func themeCSS(opts render.RenderOptions) string {
	if opts.Theme == nil || len(opts.Theme.CSSVars) == 0 {
		return ""
	}
	return cssVarsStyle(opts.Theme.CSSVars)
}
