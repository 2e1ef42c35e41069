package formflow

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const signupJSON = `{
	"id": "signup",
	"title": "Create account",
	"fields": [
		{"id": "name", "type": "text", "label": "Name", "required": true},
		{"id": "plan", "type": "select", "label": "Plan", "required": true, "options": ["free", "pro"]},
		{
			"id": "company", "type": "text", "label": "Company",
			"visibility": {"kind": "equals", "field": "plan", "value": "pro"}
		}
	]
}`

func visibleIDs(fields []Field) []string {
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ID)
	}
	return ids
}

func TestFacadeResolvesProgressively(t *testing.T) {
	t.Parallel()

	def, err := Parse([]byte(signupJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	snap := Resolve(def, AnswerMap{})
	if diff := cmp.Diff([]string{"name", "plan"}, visibleIDs(snap.Fields)); diff != "" {
		t.Fatalf("initial fields mismatch (-want +got):\n%s", diff)
	}
	if snap.Result.Valid {
		t.Fatal("empty required answers should not validate")
	}

	answers := AnswerMap{"name": "Ada", "plan": "pro"}
	snap = Resolve(def, answers)
	if diff := cmp.Diff([]string{"name", "plan", "company"}, visibleIDs(snap.Fields)); diff != "" {
		t.Fatalf("revealed fields mismatch (-want +got):\n%s", diff)
	}
	if !snap.Result.Valid {
		t.Fatalf("errors = %v", snap.Result.Errors)
	}

	capped := Resolve(def, answers, WithFieldCap(1))
	if diff := cmp.Diff([]string{"name"}, visibleIDs(capped.Fields)); diff != "" {
		t.Fatalf("capped fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFacadeFiltersHiddenAnswers(t *testing.T) {
	t.Parallel()

	def, err := Parse([]byte(signupJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	filtered := FilterAnswers(def.Fields, AnswerMap{
		"name":    "Ada",
		"plan":    "free",
		"company": "Lovelace Ltd",
		"ghost":   "value",
	})

	want := AnswerMap{"name": "Ada", "plan": "free"}
	if diff := cmp.Diff(want, filtered); diff != "" {
		t.Fatalf("filtered answers mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultRegistryCarriesBuiltins(t *testing.T) {
	t.Parallel()

	registry, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	if diff := cmp.Diff([]string{"canvas", "classic"}, registry.List()); diff != "" {
		t.Fatalf("renderers mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbeddedTemplatesContainFormPage(t *testing.T) {
	t.Parallel()

	data, err := fs.ReadFile(EmbeddedTemplates(), "form.html")
	if err != nil {
		t.Fatalf("expected form template to be readable: %v", err)
	}
	if !strings.Contains(string(data), "<form") {
		t.Fatal("expected form template to contain a form element")
	}
}

func TestEmbeddedAssetsContainStylesheet(t *testing.T) {
	t.Parallel()

	data, err := fs.ReadFile(EmbeddedAssets(), "formflow-classic.css")
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected stylesheet to have content")
	}
}
