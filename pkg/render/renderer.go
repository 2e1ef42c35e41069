package render

import (
	"context"

	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/formdef"
)

// View is the render-ready projection of a definition for one answer
// state: the visible fields in authored order, the answers that survive
// submission filtering, the clamped cursor, and the validation result
// for the same visible set.
type View struct {
	Definition *formdef.Definition
	Fields     []formdef.Field
	Answers    formdef.AnswerMap
	Cursor     int
	Result     flow.Result
}

// NewView resolves def against answers and packages the outcome for a
// renderer. Both the field list and the validation result come from the
// same resolution pass, so a field can never render without its matching
// error state.
func NewView(def *formdef.Definition, answers formdef.AnswerMap, opts ...flow.Option) View {
	snap := flow.Resolve(def, answers, opts...)
	view := View{
		Definition: def,
		Fields:     snap.Fields,
		Cursor:     snap.Cursor,
		Result:     snap.Result,
	}
	view.Answers = flow.FilterAnswers(snap.Fields, answers)
	return view
}

// Value returns the answer for a field id, or nil when unanswered.
func (v View) Value(id string) any {
	if v.Answers == nil {
		return nil
	}
	return v.Answers[id]
}

// Error returns the validation message for a field id, or "".
func (v View) Error(id string) string {
	msg, _ := v.Result.ErrorFor(id)
	return msg
}

// Renderer converts a View into a byte representation (HTML, JSON, or a
// terminal transcript).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View, opts RenderOptions) ([]byte, error)
}
