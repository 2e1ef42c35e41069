// Package store persists form definitions and their submissions on
// SQLite or PostgreSQL. Connections go through sqlx, named queries load
// from an embedded SQL file via dotsql, and schema changes run through
// the embedded per-driver migrations in this package.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"

	"github.com/goliatone/go-formflow/pkg/formdef"
)

// ErrNotFound reports that no row matched the requested id.
var ErrNotFound = errors.New("store: not found")

//go:embed queries.sql
var queriesSQL string

// Store runs the embedded named queries against one database handle.
// Safe for concurrent use; every method honours its context. Queries
// are written with ? placeholders and rebound per driver.
type Store struct {
	db  *sqlx.DB
	dot *dotsql.DotSql
}

// New wraps db with the embedded named queries. Run Migrate before
// using the returned Store against a fresh database.
func New(db *sqlx.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("store: database handle is nil")
	}
	dot, err := dotsql.LoadFromString(queriesSQL)
	if err != nil {
		return nil, fmt.Errorf("store: parse queries: %w", err)
	}
	return &Store{db: db, dot: dot}, nil
}

// DB exposes the underlying handle for migrations and shutdown.
func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) query(name string) (string, error) {
	raw, err := s.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("store: query %s: %w", name, err)
	}
	return s.db.Rebind(raw), nil
}

// DefinitionSummary is one row of the definition listing.
type DefinitionSummary struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Submission is a stored form submission. Answers hold the filtered
// visible subset that passed validation at submit time.
type Submission struct {
	ID        string            `json:"submissionId"`
	FormID    string            `json:"formId"`
	Answers   formdef.AnswerMap `json:"answers"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type definitionRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Definition []byte    `db:"definition"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type submissionRow struct {
	ID        string    `db:"id"`
	FormID    string    `db:"form_id"`
	Answers   []byte    `db:"answers"`
	Metadata  []byte    `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
}

// SaveDefinition inserts def or, when the id already exists, replaces
// the stored document and bumps updated_at. created_at survives the
// replace.
func (s *Store) SaveDefinition(ctx context.Context, def *formdef.Definition) error {
	if def == nil || def.ID == "" {
		return errors.New("store: definition needs an id")
	}
	doc, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("store: encode definition %s: %w", def.ID, err)
	}
	query, err := s.query("save-definition")
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, query, def.ID, def.Title, string(doc), now, now); err != nil {
		return fmt.Errorf("store: save definition %s: %w", def.ID, err)
	}
	return nil
}

// GetDefinition loads the stored definition document for id.
func (s *Store) GetDefinition(ctx context.Context, id string) (*formdef.Definition, error) {
	query, err := s.query("get-definition")
	if err != nil {
		return nil, err
	}
	var row definitionRow
	err = s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: definition %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get definition %q: %w", id, err)
	}
	var def formdef.Definition
	if err := json.Unmarshal(row.Definition, &def); err != nil {
		return nil, fmt.Errorf("store: decode definition %q: %w", id, err)
	}
	return &def, nil
}

// ListDefinitions returns id, title and timestamps for every stored
// definition, ordered by id.
func (s *Store) ListDefinitions(ctx context.Context) ([]DefinitionSummary, error) {
	query, err := s.query("list-definitions")
	if err != nil {
		return nil, err
	}
	var out []DefinitionSummary
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("store: list definitions: %w", err)
	}
	return out, nil
}

// SaveSubmission persists sub, assigning a UUID id and a UTC created-at
// timestamp when the caller left them empty, and returns the stored
// value.
func (s *Store) SaveSubmission(ctx context.Context, sub Submission) (Submission, error) {
	if sub.FormID == "" {
		return Submission{}, errors.New("store: submission needs a form id")
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	if sub.Answers == nil {
		sub.Answers = formdef.AnswerMap{}
	}

	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return Submission{}, fmt.Errorf("store: encode answers for %s: %w", sub.FormID, err)
	}
	var metadata any
	if len(sub.Metadata) > 0 {
		doc, err := json.Marshal(sub.Metadata)
		if err != nil {
			return Submission{}, fmt.Errorf("store: encode metadata for %s: %w", sub.FormID, err)
		}
		metadata = string(doc)
	}

	query, err := s.query("save-submission")
	if err != nil {
		return Submission{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, sub.ID, sub.FormID, string(answers), metadata, sub.CreatedAt); err != nil {
		return Submission{}, fmt.Errorf("store: save submission %s: %w", sub.ID, err)
	}
	return sub, nil
}

// GetSubmission loads one submission by id.
func (s *Store) GetSubmission(ctx context.Context, id string) (Submission, error) {
	query, err := s.query("get-submission")
	if err != nil {
		return Submission{}, err
	}
	var row submissionRow
	err = s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, fmt.Errorf("store: submission %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Submission{}, fmt.Errorf("store: get submission %q: %w", id, err)
	}
	return decodeSubmission(row)
}

// ListSubmissions returns every submission recorded for formID in
// created order.
func (s *Store) ListSubmissions(ctx context.Context, formID string) ([]Submission, error) {
	query, err := s.query("list-submissions")
	if err != nil {
		return nil, err
	}
	var rows []submissionRow
	if err := s.db.SelectContext(ctx, &rows, query, formID); err != nil {
		return nil, fmt.Errorf("store: list submissions for %s: %w", formID, err)
	}
	out := make([]Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := decodeSubmission(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func decodeSubmission(row submissionRow) (Submission, error) {
	sub := Submission{
		ID:        row.ID,
		FormID:    row.FormID,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Answers) > 0 {
		if err := json.Unmarshal(row.Answers, &sub.Answers); err != nil {
			return Submission{}, fmt.Errorf("store: decode answers for %s: %w", row.ID, err)
		}
	}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &sub.Metadata); err != nil {
			return Submission{}, fmt.Errorf("store: decode metadata for %s: %w", row.ID, err)
		}
	}
	return sub, nil
}
