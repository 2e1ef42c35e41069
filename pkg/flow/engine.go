package flow

import (
	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/visibility"
	"github.com/goliatone/go-formflow/pkg/visibility/expr"
)

type config struct {
	cap       int
	capSet    bool
	cursor    int
	cursorSet bool
	evaluator visibility.Evaluator
}

// Option adjusts a single resolve call (or, via New, every call made through
// an Engine).
type Option func(*config)

// WithFieldCap bounds how many fields may be visible at once. Values of zero
// or less mean unlimited and override a definition's MaxProgressiveFields.
func WithFieldCap(n int) Option {
	return func(c *config) {
		c.cap = n
		c.capSet = true
	}
}

// WithCursor marks the field index the renderer currently focuses.
// The cursor never changes which fields are visible; Resolve clamps it to the
// resolved subset and hands it back in the snapshot.
func WithCursor(index int) Option {
	return func(c *config) {
		c.cursor = index
		c.cursorSet = true
	}
}

// WithEvaluator replaces the rule-string evaluator used for Field.Rule.
// Tagged conditions always evaluate natively.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(c *config) {
		if eval != nil {
			c.evaluator = eval
		}
	}
}

var defaultEvaluator = expr.New()

func newConfig(opts []Option) config {
	cfg := config{evaluator: defaultEvaluator}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Engine bundles default options so renderers and hosted surfaces resolve
// with consistent settings. The zero value works; New exists for option
// plumbing symmetry.
type Engine struct {
	opts []Option
}

// New constructs an Engine whose options apply to every call, with per-call
// options appended after them.
func New(opts ...Option) *Engine {
	return &Engine{opts: opts}
}

func (e *Engine) merged(opts []Option) []Option {
	if e == nil || len(e.opts) == 0 {
		return opts
	}
	merged := make([]Option, 0, len(e.opts)+len(opts))
	merged = append(merged, e.opts...)
	merged = append(merged, opts...)
	return merged
}

// VisibleFields resolves the currently visible subset. See the package-level
// function.
func (e *Engine) VisibleFields(fields []formdef.Field, answers formdef.AnswerMap, opts ...Option) []formdef.Field {
	return VisibleFields(fields, answers, e.merged(opts)...)
}

// ValidateVisible validates the currently visible subset. See the
// package-level function.
func (e *Engine) ValidateVisible(fields []formdef.Field, answers formdef.AnswerMap, opts ...Option) Result {
	return ValidateVisible(fields, answers, e.merged(opts)...)
}

// Resolve computes the full snapshot for a definition. See the package-level
// function.
func (e *Engine) Resolve(def *formdef.Definition, answers formdef.AnswerMap, opts ...Option) Snapshot {
	return Resolve(def, answers, e.merged(opts)...)
}

// FilterAnswers drops answers for fields outside the visible subset. See the
// package-level function.
func (e *Engine) FilterAnswers(fields []formdef.Field, answers formdef.AnswerMap, opts ...Option) formdef.AnswerMap {
	return FilterAnswers(fields, answers, e.merged(opts)...)
}

// Resolve runs both resolvers over a definition and returns the snapshot a
// renderer needs: the visible fields, the clamped cursor, and the validation
// result. A definition-level MaxProgressiveFields acts as the cap unless an
// explicit WithFieldCap overrides it.
func Resolve(def *formdef.Definition, answers formdef.AnswerMap, opts ...Option) Snapshot {
	cfg := newConfig(opts)
	if def == nil {
		return Snapshot{Fields: []formdef.Field{}, Result: Result{Valid: true, Errors: map[string]string{}}}
	}
	if !cfg.capSet && def.MaxProgressiveFields > 0 {
		cfg.cap = def.MaxProgressiveFields
		cfg.capSet = true
	}
	visible := visibleFields(def.Fields, answers, cfg)
	return Snapshot{
		Fields: visible,
		Cursor: clampCursor(cfg, len(visible)),
		Result: validateVisible(visible, answers),
	}
}

func clampCursor(cfg config, size int) int {
	if !cfg.cursorSet || cfg.cursor < 0 {
		return 0
	}
	if cfg.cursor > size {
		return size
	}
	return cfg.cursor
}
