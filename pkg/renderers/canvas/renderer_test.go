package canvas

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
)

type decodedPayload struct {
	Form struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		SubmitLabel string `json:"submitLabel"`
		Action      string `json:"action"`
		Method      string `json:"method"`
	} `json:"form"`
	Elements []Element         `json:"elements"`
	Values   map[string]any    `json:"values"`
	Errors   map[string]string `json:"errors"`
}

func landingDefinition() *formdef.Definition {
	return &formdef.Definition{
		ID:          "landing",
		Title:       "Launch updates",
		SubmitLabel: "Notify me",
		Fields: []formdef.Field{
			{
				ID: "headline", Type: formdef.FieldTypeHeading, Content: "Stay in the loop",
				Layout: &formdef.Layout{X: 10, Y: 5, W: 300, H: 40},
			},
			{
				ID: "email", Type: formdef.FieldTypeEmail, Label: "Email", Required: true,
				Layout: &formdef.Layout{X: 10, Y: 60, W: 280, H: 32},
			},
			{
				ID: "channel", Type: formdef.FieldTypeSelect, Label: "Channel", Options: []string{"email", "sms"},
				Layout: &formdef.Layout{X: 10, Y: 100, W: 280, H: 32},
			},
			{
				ID: "phone", Type: formdef.FieldTypePhone, Label: "Phone",
				Visibility: &formdef.Condition{Kind: formdef.ConditionEquals, Field: "channel", Value: "sms"},
				Layout:     &formdef.Layout{X: 10, Y: 140, W: 280, H: 32},
			},
			{ID: "ref", Type: formdef.FieldTypeHidden},
		},
	}
}

func renderPayload(t *testing.T, answers formdef.AnswerMap, opts render.RenderOptions, options ...Option) decodedPayload {
	t.Helper()

	renderer, err := New(options...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	view := render.NewView(landingDefinition(), answers)
	out, err := renderer.Render(context.Background(), view, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded decodedPayload
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode payload: %v\n%s", err, out)
	}
	return decoded
}

func elementIDs(elements []Element) []string {
	ids := make([]string, 0, len(elements))
	for _, elem := range elements {
		ids = append(ids, elem.ID)
	}
	return ids
}

func TestRendererMetadata(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if renderer.Name() != "canvas" {
		t.Fatalf("name = %q", renderer.Name())
	}
	if renderer.ContentType() != "application/json" {
		t.Fatalf("content type = %q", renderer.ContentType())
	}
}

func TestRenderEmitsVisibleElements(t *testing.T) {
	got := renderPayload(t, formdef.AnswerMap{"ref": "campaign-7"}, render.RenderOptions{})

	if diff := cmp.Diff([]string{"headline", "email", "channel"}, elementIDs(got.Elements)); diff != "" {
		t.Fatalf("elements mismatch (-want +got):\n%s", diff)
	}
	if got.Form.ID != "landing" || got.Form.Title != "Launch updates" || got.Form.SubmitLabel != "Notify me" {
		t.Fatalf("form header = %+v", got.Form)
	}
	if got.Form.Action != "/forms/landing/submissions" || got.Form.Method != "POST" {
		t.Fatalf("submit target = %+v", got.Form)
	}
	if got.Values["ref"] != "campaign-7" {
		t.Fatalf("values = %#v", got.Values)
	}
	if got.Errors["email"] != "Email is required" {
		t.Fatalf("errors = %#v", got.Errors)
	}

	headline := got.Elements[0]
	if headline.Content != "Stay in the loop" || headline.Frame.W != 300 {
		t.Fatalf("headline element = %+v", headline)
	}
}

func TestRenderRevealsConditionalElement(t *testing.T) {
	got := renderPayload(t, formdef.AnswerMap{"channel": "sms"}, render.RenderOptions{})

	if diff := cmp.Diff([]string{"headline", "email", "channel", "phone"}, elementIDs(got.Elements)); diff != "" {
		t.Fatalf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSortsByZThenPosition(t *testing.T) {
	def := &formdef.Definition{
		ID: "board",
		Fields: []formdef.Field{
			{ID: "a", Type: formdef.FieldTypeText, Layout: &formdef.Layout{Z: 1}},
			{ID: "b", Type: formdef.FieldTypeText, Layout: &formdef.Layout{Y: 50}},
			{ID: "c", Type: formdef.FieldTypeText, Layout: &formdef.Layout{Y: 10, X: 100}},
			{ID: "d", Type: formdef.FieldTypeText, Layout: &formdef.Layout{Y: 10, X: 5}},
			{ID: "e", Type: formdef.FieldTypeText},
			{ID: "f", Type: formdef.FieldTypeText},
		},
	}

	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	view := render.NewView(def, formdef.AnswerMap{})
	out, err := renderer.Render(context.Background(), view, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded decodedPayload
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	// e and f share the zero frame; authored order breaks the tie.
	if diff := cmp.Diff([]string{"e", "f", "d", "c", "b", "a"}, elementIDs(decoded.Elements)); diff != "" {
		t.Fatalf("sort mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderServerErrorOverridesEngineMessage(t *testing.T) {
	got := renderPayload(t,
		formdef.AnswerMap{"email": "ada@example.com"},
		render.RenderOptions{Errors: map[string]string{"email": "Already subscribed"}},
	)

	if got.Errors["email"] != "Already subscribed" {
		t.Fatalf("errors = %#v", got.Errors)
	}
}

func TestRenderActionAndMethodOverride(t *testing.T) {
	got := renderPayload(t, formdef.AnswerMap{}, render.RenderOptions{
		Action: "/embed/forms/landing/submissions",
		Method: "put",
	})

	if got.Form.Action != "/embed/forms/landing/submissions" || got.Form.Method != "PUT" {
		t.Fatalf("submit target = %+v", got.Form)
	}
}

func TestRenderIndentedOutput(t *testing.T) {
	renderer, err := New(WithIndent("  "))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	view := render.NewView(landingDefinition(), formdef.AnswerMap{})
	out, err := renderer.Render(context.Background(), view, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(string(out), "{\n  \"form\"") {
		t.Fatalf("output not indented:\n%s", out)
	}
}
