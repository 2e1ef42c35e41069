package flow

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

// buildFields derives a definition from a pair of seeds. The layout is
// deterministic: field i gets its type from the palette, every third
// field depends on the answer of the previous answerable field, and a
// static heading is sprinkled in so caps have presentational fields to
// count.
func buildFields(count, shape int) []formdef.Field {
	palette := []formdef.FieldType{
		formdef.FieldTypeText,
		formdef.FieldTypeEmail,
		formdef.FieldTypeNumber,
		formdef.FieldTypeSelect,
		formdef.FieldTypeHeading,
		formdef.FieldTypeCheckbox,
	}

	fields := make([]formdef.Field, 0, count)
	lastAnswerable := ""
	for i := 0; i < count; i++ {
		ft := palette[(i+shape)%len(palette)]
		f := formdef.Field{
			ID:       fmt.Sprintf("f%d", i),
			Type:     ft,
			Label:    fmt.Sprintf("Field %d", i),
			Required: (i+shape)%4 == 0,
		}
		if ft.Static() {
			f.Required = false
		}
		if ft.HasOptions() {
			f.Options = []string{"yes", "no"}
		}
		if i%3 == 2 && lastAnswerable != "" {
			f.Visibility = &formdef.Condition{
				Kind:  formdef.ConditionEquals,
				Field: lastAnswerable,
				Value: "yes",
			}
		}
		if ft.Answerable() {
			lastAnswerable = f.ID
		}
		fields = append(fields, f)
	}
	return fields
}

// buildAnswers fills a subset of the fields from a bitmask, alternating
// between values that trigger follow-ups and values that do not.
func buildAnswers(fields []formdef.Field, mask int) formdef.AnswerMap {
	answers := formdef.AnswerMap{}
	for i, f := range fields {
		if !f.Type.Answerable() || mask&(1<<uint(i%30)) == 0 {
			continue
		}
		switch {
		case f.Type == formdef.FieldTypeNumber:
			answers[f.ID] = i
		case i%2 == 0:
			answers[f.ID] = "yes"
		default:
			answers[f.ID] = "no"
		}
	}
	return answers
}

func idsOf(fields []formdef.Field) []string {
	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.ID
	}
	return ids
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlowProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("resolution is deterministic", prop.ForAll(
		func(count, shape, mask int) bool {
			fields := buildFields(count, shape)
			answers := buildAnswers(fields, mask)
			first := idsOf(VisibleFields(fields, answers))
			second := idsOf(VisibleFields(fields, answers))
			return sameIDs(first, second)
		},
		gen.IntRange(0, 24), gen.IntRange(0, 11), gen.IntRange(0, 1<<20),
	))

	properties.Property("visible fields keep authored order", prop.ForAll(
		func(count, shape, mask int) bool {
			fields := buildFields(count, shape)
			answers := buildAnswers(fields, mask)
			visible := VisibleFields(fields, answers)

			pos := make(map[string]int, len(fields))
			for i, f := range fields {
				pos[f.ID] = i
			}
			prev := -1
			for _, f := range visible {
				p, ok := pos[f.ID]
				if !ok || p <= prev {
					return false
				}
				prev = p
			}
			return true
		},
		gen.IntRange(0, 24), gen.IntRange(0, 11), gen.IntRange(0, 1<<20),
	))

	properties.Property("capped resolution is a prefix of the uncapped one", prop.ForAll(
		func(count, shape, mask, limit int) bool {
			fields := buildFields(count, shape)
			answers := buildAnswers(fields, mask)
			full := idsOf(VisibleFields(fields, answers))
			capped := idsOf(VisibleFields(fields, answers, WithFieldCap(limit)))

			if limit > 0 && len(capped) > limit {
				return false
			}
			if len(capped) > len(full) {
				return false
			}
			return sameIDs(capped, full[:len(capped)])
		},
		gen.IntRange(0, 24), gen.IntRange(0, 11), gen.IntRange(0, 1<<20), gen.IntRange(-2, 30),
	))

	properties.Property("errors only name visible answerable fields", prop.ForAll(
		func(count, shape, mask, limit int) bool {
			fields := buildFields(count, shape)
			answers := buildAnswers(fields, mask)
			visible := VisibleFields(fields, answers, WithFieldCap(limit))
			res := ValidateVisible(fields, answers, WithFieldCap(limit))

			byID := make(map[string]formdef.Field, len(visible))
			for _, f := range visible {
				byID[f.ID] = f
			}
			for id, msg := range res.Errors {
				f, ok := byID[id]
				if !ok || msg == "" {
					return false
				}
				if !f.Type.Answerable() || f.Type == formdef.FieldTypeHidden {
					return false
				}
			}
			return res.Valid == (len(res.Errors) == 0)
		},
		gen.IntRange(0, 24), gen.IntRange(0, 11), gen.IntRange(0, 1<<20), gen.IntRange(-2, 30),
	))

	properties.Property("filtered answers are a subset of the visible answerable set", prop.ForAll(
		func(count, shape, mask int) bool {
			fields := buildFields(count, shape)
			answers := buildAnswers(fields, mask)
			// A stale key that matches no field must always be dropped.
			answers["stale"] = "left over"
			filtered := FilterAnswers(fields, answers)

			allowed := make(map[string]bool)
			for _, f := range VisibleFields(fields, answers) {
				if f.Type.Answerable() {
					allowed[f.ID] = true
				}
			}
			for id := range filtered {
				if !allowed[id] {
					return false
				}
				if _, ok := answers[id]; !ok {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 24), gen.IntRange(0, 11), gen.IntRange(0, 1<<20),
	))

	properties.Property("cursor stays within the visible range", prop.ForAll(
		func(count, shape, mask, cursor int) bool {
			fields := buildFields(count, shape)
			def := &formdef.Definition{ID: "prop", Fields: fields}
			answers := buildAnswers(fields, mask)
			snap := Resolve(def, answers, WithCursor(cursor))
			return snap.Cursor >= 0 && snap.Cursor <= len(snap.Fields)
		},
		gen.IntRange(0, 24), gen.IntRange(0, 11), gen.IntRange(0, 1<<20), gen.IntRange(-100, 100),
	))

	properties.Property("hostile answer values never panic the engine", prop.ForAll(
		func(count, shape, pick int) bool {
			fields := buildFields(count, shape)
			hostile := []any{nil, 3.14, []string{"yes"}, []any{1, "two"}, map[string]any{"x": 1}, struct{}{}, -1}
			answers := formdef.AnswerMap{}
			for i, f := range fields {
				answers[f.ID] = hostile[(i+pick)%len(hostile)]
			}
			snap := Resolve(&formdef.Definition{ID: "hostile", Fields: fields}, answers)
			return snap.Result.Errors != nil
		},
		gen.IntRange(0, 24), gen.IntRange(0, 11), gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}
