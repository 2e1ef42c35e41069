package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := Open("sqlite://:memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func contactDefinition() *formdef.Definition {
	max := 5.0
	return &formdef.Definition{
		ID:          "contact",
		Title:       "Contact us",
		SubmitLabel: "Send",
		Fields: []formdef.Field{
			{ID: "name", Type: formdef.FieldTypeText, Label: "Name", Required: true},
			{ID: "email", Type: formdef.FieldTypeEmail, Label: "Email", Required: true},
			{
				ID: "score", Type: formdef.FieldTypeRating, Label: "Score",
				Validation: &formdef.Validation{Max: &max},
				Visibility: &formdef.Condition{Kind: formdef.ConditionPresent, Field: "email"},
			},
		},
		Metadata: map[string]string{"owner": "marketing"},
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open("mysql://localhost/forms"); err == nil || !strings.Contains(err.Error(), "unsupported database URL") {
		t.Fatalf("expected scheme error, got %v", err)
	}
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestSaveAndGetDefinition(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	def := contactDefinition()

	if err := store.SaveDefinition(ctx, def); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetDefinition(ctx, "contact")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(def, got); diff != "" {
		t.Fatalf("definition mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveDefinitionUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	def := contactDefinition()
	if err := store.SaveDefinition(ctx, def); err != nil {
		t.Fatalf("save: %v", err)
	}
	def.Title = "Talk to sales"
	if err := store.SaveDefinition(ctx, def); err != nil {
		t.Fatalf("save again: %v", err)
	}

	list, err := store.ListDefinitions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("definitions = %d, want 1", len(list))
	}
	if list[0].Title != "Talk to sales" {
		t.Fatalf("title = %q", list[0].Title)
	}
	if list[0].UpdatedAt.Before(list[0].CreatedAt) {
		t.Fatalf("updated_at %v precedes created_at %v", list[0].UpdatedAt, list[0].CreatedAt)
	}
}

func TestGetDefinitionNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetDefinition(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSubmissionAssignsIDAndTimestamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveSubmission(ctx, Submission{
		FormID:   "contact",
		Answers:  formdef.AnswerMap{"name": "Ada", "score": float64(4)},
		Metadata: map[string]any{"source": "hosted"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("submission not stamped: %+v", saved)
	}

	got, err := store.GetSubmission(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(saved, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
}

func TestListSubmissionsOrdersByCreatedAt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	// Inserted newest first to prove ordering comes from the query.
	for i, id := range []string{"late", "mid", "early"} {
		_, err := store.SaveSubmission(ctx, Submission{
			ID:        id,
			FormID:    "contact",
			Answers:   formdef.AnswerMap{"name": id},
			CreatedAt: base.Add(time.Duration(2-i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if _, err := store.SaveSubmission(ctx, Submission{ID: "other", FormID: "signup"}); err != nil {
		t.Fatalf("save other form: %v", err)
	}

	list, err := store.ListSubmissions(ctx, "contact")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, sub := range list {
		ids = append(ids, sub.ID)
	}
	if diff := cmp.Diff([]string{"early", "mid", "late"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSubmissionNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSubmission(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	if err := Migrate(context.Background(), store.DB()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestMigrateDetectsChecksumMismatch(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.DB().Exec("UPDATE schema_migrations SET checksum = 'tampered'"); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	err := Migrate(context.Background(), store.DB())
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("expected checksum error, got %v", err)
	}
}
