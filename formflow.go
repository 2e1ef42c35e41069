// Package formflow exposes the progressive form toolkit through one import:
// definition parsing, visibility resolution, visible-subset validation, and
// the built-in renderer registry. The subpackages remain the richer surface;
// everything here delegates to them.
package formflow

import (
	"io/fs"

	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/canvas"
	"github.com/goliatone/go-formflow/pkg/renderers/classic"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Definition is a parsed form definition.
type Definition = formdef.Definition

// Field is a single form field.
type Field = formdef.Field

// AnswerMap holds answers keyed by field id.
type AnswerMap = formdef.AnswerMap

// Condition is a tagged visibility predicate.
type Condition = formdef.Condition

// Snapshot is the engine output a renderer consumes.
type Snapshot = flow.Snapshot

// Result is the validation outcome over the visible subset.
type Result = flow.Result

// View bundles a definition with its resolved state for rendering.
type View = render.View

// RenderOptions carries per-request renderer overrides.
type RenderOptions = render.RenderOptions

// Renderer turns a View into output bytes.
type Renderer = render.Renderer

// Evaluator resolves rule strings against answers.
type Evaluator = visibility.Evaluator

// Parse decodes and lints a definition from JSON or YAML bytes.
func Parse(data []byte) (*Definition, error) {
	return formdef.Parse(data)
}

// Load reads, decodes, and lints a definition file.
func Load(path string) (*Definition, error) {
	return formdef.Load(path)
}

// Resolve computes the visible fields, clamped cursor, and validation result
// for a definition under the given answers.
func Resolve(def *Definition, answers AnswerMap, opts ...flow.Option) Snapshot {
	return flow.Resolve(def, answers, opts...)
}

// VisibleFields resolves just the ordered visible subset.
func VisibleFields(fields []Field, answers AnswerMap, opts ...flow.Option) []Field {
	return flow.VisibleFields(fields, answers, opts...)
}

// ValidateVisible validates answers against the currently visible fields.
func ValidateVisible(fields []Field, answers AnswerMap, opts ...flow.Option) Result {
	return flow.ValidateVisible(fields, answers, opts...)
}

// FilterAnswers drops answers whose fields are hidden or unknown, keeping
// submissions aligned with what the user could see.
func FilterAnswers(fields []Field, answers AnswerMap, opts ...flow.Option) AnswerMap {
	return flow.FilterAnswers(fields, answers, opts...)
}

// NewView resolves a definition into a render-ready View.
func NewView(def *Definition, answers AnswerMap, opts ...flow.Option) View {
	return render.NewView(def, answers, opts...)
}

// WithFieldCap bounds how many fields may be visible at once.
func WithFieldCap(n int) flow.Option {
	return flow.WithFieldCap(n)
}

// WithCursor marks the focused field index carried through the snapshot.
func WithCursor(index int) flow.Option {
	return flow.WithCursor(index)
}

// WithEvaluator swaps the rule-string evaluator.
func WithEvaluator(eval Evaluator) flow.Option {
	return flow.WithEvaluator(eval)
}

// DefaultRegistry returns a registry carrying the built-in non-interactive
// renderers, classic and canvas. The conversational renderer owns a terminal
// session, so callers opt into it explicitly.
func DefaultRegistry() (*render.Registry, error) {
	registry := render.NewRegistry()

	classicRenderer, err := classic.New()
	if err != nil {
		return nil, err
	}
	if err := registry.Register(classicRenderer); err != nil {
		return nil, err
	}

	canvasRenderer, err := canvas.New()
	if err != nil {
		return nil, err
	}
	if err := registry.Register(canvasRenderer); err != nil {
		return nil, err
	}

	return registry, nil
}

// EmbeddedTemplates exposes the classic renderer's built-in page templates so
// callers can reuse or extend them without importing the renderer package
// directly.
func EmbeddedTemplates() fs.FS {
	return classic.TemplatesFS()
}

// EmbeddedAssets exposes the classic renderer's stylesheet bundle.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formflow.EmbeddedAssets()),
//	  ),
//	)
func EmbeddedAssets() fs.FS {
	return classic.AssetsFS()
}
