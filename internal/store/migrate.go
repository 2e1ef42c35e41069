package store

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// schema_migrations tracks applied files by name. applied_at is stored
// as RFC3339 text on both drivers; only name and checksum are read
// back.
const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL,
	applied_at TEXT NOT NULL
)`

type migrationFile struct {
	Name     string
	Checksum string
	SQL      string
}

// Migrate applies the embedded migrations for db's driver that have not
// run yet, in filename order, each inside its own transaction. Applied
// files are recorded with a sha256 checksum; if a recorded checksum no
// longer matches the embedded file, Migrate aborts before running
// anything.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	dir, err := migrationsDir(db.DriverName())
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("store: create schema_migrations: %w", err)
	}

	files, err := readMigrations(dir)
	if err != nil {
		return err
	}
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	byName := make(map[string]migrationFile, len(files))
	for _, file := range files {
		byName[file.Name] = file
	}
	for name, checksum := range applied {
		file, ok := byName[name]
		if !ok {
			return fmt.Errorf("store: migration %s is recorded but not embedded", name)
		}
		if file.Checksum != checksum {
			return fmt.Errorf("store: migration %s checksum mismatch: recorded %s, embedded %s", name, checksum, file.Checksum)
		}
	}

	for _, file := range files {
		if _, ok := applied[file.Name]; ok {
			continue
		}
		if err := applyMigration(ctx, db, file); err != nil {
			return err
		}
	}
	return nil
}

func migrationsDir(driver string) (string, error) {
	switch driver {
	case "sqlite3":
		return "migrations/sqlite", nil
	case "postgres":
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("store: no migrations for driver %s", driver)
	}
}

func readMigrations(dir string) ([]migrationFile, error) {
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("store: read migrations: %w", err)
	}

	files := make([]migrationFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		content, err := migrationsFS.ReadFile(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("store: read migration %s: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(content)
		files = append(files, migrationFile{
			Name:     entry.Name(),
			Checksum: hex.EncodeToString(sum[:]),
			SQL:      string(content),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func appliedMigrations(ctx context.Context, db *sqlx.DB) (map[string]string, error) {
	rows, err := db.QueryxContext(ctx, "SELECT name, checksum FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("store: query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var name, checksum string
		if err := rows.Scan(&name, &checksum); err != nil {
			return nil, fmt.Errorf("store: scan schema_migrations: %w", err)
		}
		applied[name] = checksum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate schema_migrations: %w", err)
	}
	return applied, nil
}

// applyMigration runs one file inside a transaction. Statements are
// split on semicolons because lib/pq rejects multi-statement Exec
// calls.
func applyMigration(ctx context.Context, db *sqlx.DB, file migrationFile) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin migration %s: %w", file.Name, err)
	}

	for _, stmt := range splitStatements(file.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: apply migration %s: %w", file.Name, err)
		}
	}

	record := db.Rebind("INSERT INTO schema_migrations (name, checksum, applied_at) VALUES (?, ?, ?)")
	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, record, file.Name, file.Checksum, appliedAt); err != nil {
		tx.Rollback()
		return fmt.Errorf("store: record migration %s: %w", file.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit migration %s: %w", file.Name, err)
	}
	return nil
}

func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if !hasStatement(part) {
			continue
		}
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

// hasStatement reports whether part contains anything besides blank
// lines and -- comments.
func hasStatement(part string) bool {
	for _, line := range strings.Split(part, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		return true
	}
	return false
}
