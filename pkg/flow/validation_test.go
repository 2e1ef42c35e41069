package flow

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

func floatPtr(v float64) *float64 { return &v }

func TestValidateVisibleRequired(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "name", Type: formdef.FieldTypeText, Label: "Full name", Required: true},
		{ID: "channels", Type: formdef.FieldTypeCheckbox, Label: "Channels", Required: true, Options: []string{"email", "sms"}},
		{ID: "terms", Type: formdef.FieldTypeConsent, Label: "Terms", Required: true},
		{ID: "cv", Type: formdef.FieldTypeFile, Label: "CV", Required: true},
		{ID: "score", Type: formdef.FieldTypeRating, Label: "Score", Required: true},
	}

	cases := []struct {
		name    string
		answers formdef.AnswerMap
		want    map[string]string
	}{
		{
			name:    "all missing",
			answers: formdef.AnswerMap{},
			want: map[string]string{
				"name":     "Full name is required",
				"channels": "Channels is required",
				"terms":    "Terms is required",
				"cv":       "CV is required",
				"score":    "Score is required",
			},
		},
		{
			name: "empty variants",
			answers: formdef.AnswerMap{
				"name":     "",
				"channels": []string{},
				"terms":    false,
				"cv":       formdef.FileValue{},
				"score":    nil,
			},
			want: map[string]string{
				"name":     "Full name is required",
				"channels": "Channels is required",
				"terms":    "Terms is required",
				"cv":       "CV is required",
				"score":    "Score is required",
			},
		},
		{
			name: "filled",
			answers: formdef.AnswerMap{
				"name":     "Ada",
				"channels": []string{"sms"},
				"terms":    true,
				"cv":       formdef.FileValue{Name: "cv.pdf", Size: 1024},
				"score":    0,
			},
			want: map[string]string{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := ValidateVisible(fields, tc.answers)
			if diff := cmp.Diff(tc.want, res.Errors); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
			if res.Valid != (len(tc.want) == 0) {
				t.Fatalf("Valid = %v with %d errors", res.Valid, len(tc.want))
			}
		})
	}
}

func TestValidateVisibleRatingZeroCounts(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "score", Type: formdef.FieldTypeRating, Label: "Score", Required: true},
	}
	res := ValidateVisible(fields, formdef.AnswerMap{"score": 0})
	if !res.Valid {
		t.Fatalf("zero rating rejected: %v", res.Errors)
	}
}

func TestValidateVisibleEmail(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "email", Type: formdef.FieldTypeEmail, Label: "Email"},
	}

	cases := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "plain", value: "ada@example.com", valid: true},
		{name: "subdomain", value: "ada@mail.example.co.uk", valid: true},
		{name: "plus tag", value: "ada+forms@example.com", valid: true},
		{name: "no at", value: "ada.example.com", valid: false},
		{name: "no domain dot", value: "ada@example", valid: false},
		{name: "spaces", value: "ada @example.com", valid: false},
		{name: "double at", value: "ada@@example.com", valid: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := ValidateVisible(fields, formdef.AnswerMap{"email": tc.value})
			if res.Valid != tc.valid {
				t.Fatalf("valid = %v for %q, want %v (%v)", res.Valid, tc.value, tc.valid, res.Errors)
			}
			if !tc.valid && res.Errors["email"] != "Please enter a valid email address" {
				t.Fatalf("unexpected message %q", res.Errors["email"])
			}
		})
	}
}

func TestValidateVisibleURL(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "site", Type: formdef.FieldTypeURL, Label: "Site"},
	}

	cases := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "https", value: "https://example.com", valid: true},
		{name: "http with path", value: "http://example.com/a/b?c=1", valid: true},
		{name: "bare word", value: "example", valid: false},
		{name: "missing host", value: "https://", valid: false},
		{name: "spaces", value: "https://exa mple.com", valid: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := ValidateVisible(fields, formdef.AnswerMap{"site": tc.value})
			if res.Valid != tc.valid {
				t.Fatalf("valid = %v for %q, want %v (%v)", res.Valid, tc.value, tc.valid, res.Errors)
			}
			if !tc.valid && res.Errors["site"] != "Please enter a valid URL" {
				t.Fatalf("unexpected message %q", res.Errors["site"])
			}
		})
	}
}

func TestValidateVisibleFileSize(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{
			ID:         "upload",
			Type:       formdef.FieldTypeFile,
			Label:      "Upload",
			Validation: &formdef.Validation{Max: floatPtr(5)},
		},
	}

	at := func(size int64) Result {
		return ValidateVisible(fields, formdef.AnswerMap{
			"upload": formdef.FileValue{Name: "deck.pdf", Size: size},
		})
	}

	if res := at(5 * 1024 * 1024); !res.Valid {
		t.Fatalf("exact limit rejected: %v", res.Errors)
	}
	res := at(5*1024*1024 + 1)
	if res.Valid {
		t.Fatal("oversized file accepted")
	}
	if res.Errors["upload"] != "File size must not exceed 5MB" {
		t.Fatalf("unexpected message %q", res.Errors["upload"])
	}
}

func TestValidateVisibleFileDefaultLimit(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "upload", Type: formdef.FieldTypeFile, Label: "Upload"},
	}

	res := ValidateVisible(fields, formdef.AnswerMap{
		"upload": formdef.FileValue{Name: "big.zip", Size: 10*1024*1024 + 1},
	})
	if res.Valid {
		t.Fatal("file above default limit accepted")
	}
	if res.Errors["upload"] != "File size must not exceed 10MB" {
		t.Fatalf("unexpected message %q", res.Errors["upload"])
	}
}

func TestValidateVisibleFileExtensions(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{
			ID:         "upload",
			Type:       formdef.FieldTypeFile,
			Label:      "Upload",
			Validation: &formdef.Validation{Pattern: ".pdf, .PNG, jpg"},
		},
	}

	cases := []struct {
		name  string
		file  string
		valid bool
	}{
		{name: "listed", file: "deck.pdf", valid: true},
		{name: "case insensitive", file: "SHOT.png", valid: true},
		{name: "entry without dot", file: "photo.JPG", valid: true},
		{name: "unlisted", file: "script.sh", valid: false},
		{name: "no extension", file: "README", valid: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := ValidateVisible(fields, formdef.AnswerMap{
				"upload": formdef.FileValue{Name: tc.file, Size: 100},
			})
			if res.Valid != tc.valid {
				t.Fatalf("valid = %v for %q, want %v (%v)", res.Valid, tc.file, tc.valid, res.Errors)
			}
			if !tc.valid && res.Errors["upload"] != "File type must be one of: .pdf, .PNG, jpg" {
				t.Fatalf("unexpected message %q", res.Errors["upload"])
			}
		})
	}
}

func TestValidateVisibleFileMalformedValue(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "upload", Type: formdef.FieldTypeFile, Label: "Upload"},
	}
	res := ValidateVisible(fields, formdef.AnswerMap{"upload": "not-a-file"})
	if res.Valid {
		t.Fatal("malformed file value accepted")
	}
	if res.Errors["upload"] != "Please upload a valid file" {
		t.Fatalf("unexpected message %q", res.Errors["upload"])
	}
}

func TestValidateVisibleNumberBounds(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{
			ID:         "seats",
			Type:       formdef.FieldTypeNumber,
			Label:      "Seats",
			Validation: &formdef.Validation{Min: floatPtr(2), Max: floatPtr(10)},
		},
	}

	cases := []struct {
		name  string
		value any
		want  string
	}{
		{name: "in range", value: 5, want: ""},
		{name: "min boundary", value: 2, want: ""},
		{name: "max boundary", value: "10", want: ""},
		{name: "below", value: 1, want: "Seats must be at least 2"},
		{name: "above", value: 11.5, want: "Seats must be at most 10"},
		{name: "not numeric", value: "many", want: "Seats must be a number"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := ValidateVisible(fields, formdef.AnswerMap{"seats": tc.value})
			if res.Errors["seats"] != tc.want {
				t.Fatalf("error = %q, want %q", res.Errors["seats"], tc.want)
			}
		})
	}
}

func TestValidateVisibleTextLength(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{
			ID:         "bio",
			Type:       formdef.FieldTypeTextarea,
			Label:      "Bio",
			Validation: &formdef.Validation{Min: floatPtr(3), Max: floatPtr(5)},
		},
	}

	cases := []struct {
		name  string
		value string
		want  string
	}{
		{name: "in range", value: "abcd", want: ""},
		{name: "multibyte runes", value: "héllo", want: ""},
		{name: "too short", value: "ab", want: "Bio must be at least 3 characters"},
		{name: "too long", value: "abcdef", want: "Bio must be at most 5 characters"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := ValidateVisible(fields, formdef.AnswerMap{"bio": tc.value})
			if res.Errors["bio"] != tc.want {
				t.Fatalf("error = %q, want %q", res.Errors["bio"], tc.want)
			}
		})
	}
}

func TestValidateVisibleSingleErrorPerField(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{
			ID:         "email",
			Type:       formdef.FieldTypeEmail,
			Label:      "Email",
			Required:   true,
			Validation: &formdef.Validation{Max: floatPtr(5)},
		},
	}

	// Empty: the required check wins, nothing else runs.
	res := ValidateVisible(fields, formdef.AnswerMap{})
	if res.Errors["email"] != "Email is required" {
		t.Fatalf("empty field error = %q", res.Errors["email"])
	}

	// Malformed and over length: the format check wins.
	res = ValidateVisible(fields, formdef.AnswerMap{"email": "definitely-not-an-email"})
	if res.Errors["email"] != "Please enter a valid email address" {
		t.Fatalf("format error = %q", res.Errors["email"])
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
}

func TestValidateVisibleSkipsHiddenFields(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "plan", Type: formdef.FieldTypeSelect, Label: "Plan", Options: []string{"free", "pro"}},
		{
			ID:         "email",
			Type:       formdef.FieldTypeEmail,
			Label:      "Work email",
			Required:   true,
			Visibility: &formdef.Condition{Kind: formdef.ConditionEquals, Field: "plan", Value: "pro"},
		},
	}

	// The broken answer sits behind a hidden field and must not surface.
	res := ValidateVisible(fields, formdef.AnswerMap{"plan": "free", "email": "broken"})
	if !res.Valid {
		t.Fatalf("hidden field produced an error: %v", res.Errors)
	}

	res = ValidateVisible(fields, formdef.AnswerMap{"plan": "pro", "email": "broken"})
	if res.Valid || res.Errors["email"] == "" {
		t.Fatalf("revealed field not validated: %v", res.Errors)
	}
}

func TestValidateVisibleRespectsCap(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "a", Type: formdef.FieldTypeText, Label: "A", Required: true},
		{ID: "b", Type: formdef.FieldTypeText, Label: "B", Required: true},
	}

	res := ValidateVisible(fields, formdef.AnswerMap{}, WithFieldCap(1))
	want := map[string]string{"a": "A is required"}
	if diff := cmp.Diff(want, res.Errors); diff != "" {
		t.Fatalf("capped validation mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateVisibleStaticsNeverValidated(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "head", Type: formdef.FieldTypeHeading, Label: "Heading"},
		{ID: "rule", Type: formdef.FieldTypeDivider},
		{ID: "blurb", Type: formdef.FieldTypeHTML, Content: "<p>hi</p>"},
	}

	res := ValidateVisible(fields, formdef.AnswerMap{})
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("static fields produced errors: %v", res.Errors)
	}
}

func TestValidateVisibleHiddenTypeNeverValidated(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "ref", Type: formdef.FieldTypeHidden, Label: "Referrer"},
	}

	res := ValidateVisible(fields, formdef.AnswerMap{})
	if !res.Valid {
		t.Fatalf("hidden carrier field produced errors: %v", res.Errors)
	}
}

func TestValidateVisibleProgressiveReveal(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "a", Type: formdef.FieldTypeText, Label: "A", Required: true},
		{ID: "b", Type: formdef.FieldTypeEmail, Label: "B", Rule: "a == 'go'"},
	}

	// Before the trigger answer only a is visible, and it is empty.
	visible := VisibleFields(fields, formdef.AnswerMap{})
	if diff := cmp.Diff([]string{"a"}, visibleIDs(visible)); diff != "" {
		t.Fatalf("initial visibility (-want +got):\n%s", diff)
	}
	res := ValidateVisible(fields, formdef.AnswerMap{})
	if res.Valid {
		t.Fatal("empty required field passed validation")
	}
	if diff := cmp.Diff(map[string]string{"a": "A is required"}, res.Errors); diff != "" {
		t.Fatalf("initial errors (-want +got):\n%s", diff)
	}

	// The trigger answer reveals b; with b unanswered the form is valid.
	answers := formdef.AnswerMap{"a": "go"}
	visible = VisibleFields(fields, answers)
	if diff := cmp.Diff([]string{"a", "b"}, visibleIDs(visible)); diff != "" {
		t.Fatalf("revealed visibility (-want +got):\n%s", diff)
	}
	res = ValidateVisible(fields, answers)
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("optional empty field flagged: %v", res.Errors)
	}

	// A malformed value in the revealed field fails with exactly one error.
	res = ValidateVisible(fields, formdef.AnswerMap{"a": "go", "b": "bad"})
	if res.Valid {
		t.Fatal("malformed email passed validation")
	}
	want := map[string]string{"b": "Please enter a valid email address"}
	if diff := cmp.Diff(want, res.Errors); diff != "" {
		t.Fatalf("revealed errors (-want +got):\n%s", diff)
	}
}

func TestResolveNilDefinition(t *testing.T) {
	t.Parallel()

	snap := Resolve(nil, formdef.AnswerMap{"x": "y"})
	if len(snap.Fields) != 0 || snap.Cursor != 0 {
		t.Fatalf("nil definition snapshot = %+v", snap)
	}
	if !snap.Result.Valid || snap.Result.Errors == nil {
		t.Fatalf("nil definition result = %+v", snap.Result)
	}
}

func TestEngineReuse(t *testing.T) {
	t.Parallel()

	eng := New(WithFieldCap(2))
	fields := progressiveFields()

	got := eng.VisibleFields(fields, formdef.AnswerMap{"plan": "pro"})
	if diff := cmp.Diff([]string{"intro", "name"}, visibleIDs(got)); diff != "" {
		t.Fatalf("engine cap lost (-want +got):\n%s", diff)
	}

	// Per-call options stack on top of the engine's.
	got = eng.VisibleFields(fields, formdef.AnswerMap{"plan": "pro"}, WithFieldCap(3))
	if diff := cmp.Diff([]string{"intro", "name", "plan"}, visibleIDs(got)); diff != "" {
		t.Fatalf("per-call override lost (-want +got):\n%s", diff)
	}
}

func TestFilterAnswers(t *testing.T) {
	t.Parallel()

	fields := []formdef.Field{
		{ID: "head", Type: formdef.FieldTypeHeading, Label: "Intro"},
		{ID: "plan", Type: formdef.FieldTypeSelect, Label: "Plan", Options: []string{"free", "pro"}},
		{
			ID:         "company",
			Type:       formdef.FieldTypeText,
			Label:      "Company",
			Visibility: &formdef.Condition{Kind: formdef.ConditionEquals, Field: "plan", Value: "pro"},
		},
		{ID: "ref", Type: formdef.FieldTypeHidden},
	}

	answers := formdef.AnswerMap{
		"plan":    "free",
		"company": "Acme",
		"ref":     "campaign-7",
		"ghost":   "no such field",
	}

	got := FilterAnswers(fields, answers)
	want := formdef.AnswerMap{"plan": "free", "ref": "campaign-7"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filtered answers mismatch (-want +got):\n%s", diff)
	}

	// Switching the plan back brings the stale answer with it.
	answers["plan"] = "pro"
	got = FilterAnswers(fields, answers)
	if _, ok := got["company"]; !ok {
		t.Fatalf("revealed answer dropped: %v", got)
	}
}

func TestResultErrorFor(t *testing.T) {
	t.Parallel()

	res := Result{Valid: false, Errors: map[string]string{"a": "A is required"}}
	if got := res.ErrorFor("a"); got != "A is required" {
		t.Fatalf("ErrorFor(a) = %q", got)
	}
	if got := res.ErrorFor("missing"); got != "" {
		t.Fatalf("ErrorFor(missing) = %q", got)
	}
	if strings.Contains(res.ErrorFor("a"), "\n") {
		t.Fatal("messages must be single line")
	}
}
