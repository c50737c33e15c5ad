// Package decisions persists folder-move decisions so the user can
// undo a reclassification or suppress a location permanently.
package decisions

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Decision states.
const (
	StateActive  = "active"
	StateUndone  = "undone"
	StateIgnored = "ignored"
)

// ErrNotFound is returned when no decision carries the requested id.
var ErrNotFound = errors.New("decision not found")

// Decision records one folder move.
type Decision struct {
	ID           string
	OriginalPath string
	NewPath      string
	Category     string
	Subcategory  string
	State        string
	CreatedAt    time.Time
}

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store manages decision persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the decision database under dataDir
// and applies migrations.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "decisions.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) applyMigrations(ctx context.Context) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		var applied int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", version).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if applied > 0 {
			continue
		}
		body, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
	}
	return tx.Commit()
}

const decisionColumns = "id, original_path, new_path, category, subcategory, state, created_at"

func scanDecision(scanner interface{ Scan(dest ...any) error }) (*Decision, error) {
	var (
		decision    Decision
		subcategory sql.NullString
		createdRaw  string
	)
	if err := scanner.Scan(
		&decision.ID,
		&decision.OriginalPath,
		&decision.NewPath,
		&decision.Category,
		&subcategory,
		&decision.State,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	decision.Subcategory = subcategory.String
	if parsed, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		decision.CreatedAt = parsed
	}
	return &decision, nil
}

// Insert stores a new active decision.
func (s *Store) Insert(ctx context.Context, decision *Decision) error {
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now().UTC()
	}
	if decision.State == "" {
		decision.State = StateActive
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, original_path, new_path, category, subcategory, state, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		decision.ID,
		decision.OriginalPath,
		decision.NewPath,
		decision.Category,
		nullableString(decision.Subcategory),
		decision.State,
		decision.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// GetByID fetches one decision.
func (s *Store) GetByID(ctx context.Context, id string) (*Decision, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+decisionColumns+" FROM decisions WHERE id = ?", id)
	decision, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}
	return decision, nil
}

// List returns the most recent decisions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Decision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+decisionColumns+" FROM decisions ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*Decision
	for rows.Next() {
		decision, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, decision)
	}
	return decisions, rows.Err()
}

// UpdateState transitions a decision to a terminal state.
func (s *Store) UpdateState(ctx context.Context, id, state string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE decisions SET state = ? WHERE id = ?", state, id)
	if err != nil {
		return fmt.Errorf("update decision state: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune discards the oldest decisions beyond keep. Discarding never
// undoes the recorded move.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM decisions WHERE id NOT IN (
            SELECT id FROM decisions ORDER BY created_at DESC, id DESC LIMIT ?
        )`, keep)
	if err != nil {
		return fmt.Errorf("prune decisions: %w", err)
	}
	return nil
}

// Count reports how many decisions are stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM decisions").Scan(&count); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return count, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
