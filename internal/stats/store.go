// Package stats aggregates completed moves into daily and per-category
// counters. It consumes the engine's durable MoveRecord stream, which
// applies backpressure rather than dropping entries.
package stats

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tidycore/internal/events"
)

const dayFormat = "2006-01-02"

//go:embed migrations/*.sql
var migrationFS embed.FS

// Operation is one recorded move, as shown by "tidycore recent".
type Operation struct {
	RecordID        string
	SourcePath      string
	DestinationPath string
	Category        string
	Subcategory     string
	IsFolder        bool
	SizeBytes       int64
	MovedAt         time.Time
}

// DailyCount pairs a day with its move count.
type DailyCount struct {
	Day   string
	Count int
}

// Summary is the aggregate view served over IPC.
type Summary struct {
	TodayCount      int
	TotalCount      int
	TotalBytes      int64
	TodayByCategory map[string]int
	Week            []DailyCount
}

// Store manages statistics persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the statistics database under dataDir
// and applies migrations.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "stats.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
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

// RecordMove persists one completed move and bumps the day's counters
// in a single transaction.
func (s *Store) RecordMove(ctx context.Context, record events.MoveRecord) error {
	movedAt := record.MovedAt
	if movedAt.IsZero() {
		movedAt = time.Now()
	}
	day := movedAt.Format(dayFormat)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stats tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO file_operations (
            record_id, source_path, destination_path, category, subcategory,
            is_folder, size_bytes, moved_at, day
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(record.ID),
		record.SourcePath,
		record.DestinationPath,
		record.Category,
		nullableString(record.Subcategory),
		boolToInt(record.IsFolder),
		record.SizeBytes,
		movedAt.UTC().Format(time.RFC3339Nano),
		day,
	); err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO daily_stats (day, files_moved, bytes_moved) VALUES (?, 1, ?)
         ON CONFLICT(day) DO UPDATE SET
            files_moved = files_moved + 1,
            bytes_moved = bytes_moved + excluded.bytes_moved`,
		day, record.SizeBytes,
	); err != nil {
		return fmt.Errorf("bump daily stats: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO category_stats (day, category, files_moved) VALUES (?, ?, 1)
         ON CONFLICT(day, category) DO UPDATE SET files_moved = files_moved + 1`,
		day, record.Category,
	); err != nil {
		return fmt.Errorf("bump category stats: %w", err)
	}

	return tx.Commit()
}

// Summarize builds the aggregate view for now's date.
func (s *Store) Summarize(ctx context.Context, now time.Time) (*Summary, error) {
	today := now.Format(dayFormat)
	summary := &Summary{TodayByCategory: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(files_moved), 0), COALESCE(SUM(bytes_moved), 0) FROM daily_stats").
		Scan(&summary.TotalCount, &summary.TotalBytes); err != nil {
		return nil, fmt.Errorf("total counts: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(files_moved), 0) FROM daily_stats WHERE day = ?", today).
		Scan(&summary.TodayCount); err != nil {
		return nil, fmt.Errorf("today count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT category, files_moved FROM category_stats WHERE day = ? ORDER BY files_moved DESC, category", today)
	if err != nil {
		return nil, fmt.Errorf("today categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		summary.TodayByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for offset := 6; offset >= 0; offset-- {
		day := now.AddDate(0, 0, -offset).Format(dayFormat)
		var count int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COALESCE(SUM(files_moved), 0) FROM daily_stats WHERE day = ?", day).
			Scan(&count); err != nil {
			return nil, fmt.Errorf("week count: %w", err)
		}
		summary.Week = append(summary.Week, DailyCount{Day: day, Count: count})
	}
	return summary, nil
}

// Recent lists the latest recorded operations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Operation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, source_path, destination_path, category, subcategory,
                is_folder, size_bytes, moved_at
         FROM file_operations ORDER BY moved_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var operations []Operation
	for rows.Next() {
		var (
			operation   Operation
			recordID    sql.NullString
			subcategory sql.NullString
			isFolder    int
			movedRaw    string
		)
		if err := rows.Scan(
			&recordID,
			&operation.SourcePath,
			&operation.DestinationPath,
			&operation.Category,
			&subcategory,
			&isFolder,
			&operation.SizeBytes,
			&movedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		operation.RecordID = recordID.String
		operation.Subcategory = subcategory.String
		operation.IsFolder = isFolder != 0
		if parsed, err := time.Parse(time.RFC3339Nano, movedRaw); err == nil {
			operation.MovedAt = parsed
		}
		operations = append(operations, operation)
	}
	return operations, rows.Err()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
