// Package sqlite stores an imported book catalog in SQLite so the table can
// be served without the original payload.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence for imported catalogs.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Import describes one catalog import.
type Import struct {
	ImportedAt time.Time `json:"imported_at"`
	Source     string    `json:"source"`
	ID         int64     `json:"id"`
	BookCount  int       `json:"book_count"`
}

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceBooks swaps the stored catalog for records in a single transaction
// and records the import.
func (s *Store) ReplaceBooks(ctx context.Context, source string, records []domain.BookRecord) (Import, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Import{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return Import{}, fmt.Errorf("delete books: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO books (position, title, authors, publication_date, average_rating, publisher)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Import{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		_, err := stmt.ExecContext(ctx,
			i,
			string(rec.Title),
			string(rec.Authors),
			string(rec.PublicationDate),
			string(rec.AverageRating),
			nullString(string(rec.Publisher)),
		)
		if err != nil {
			return Import{}, fmt.Errorf("insert book %d: %w", i, err)
		}
	}

	imp := Import{
		Source:     source,
		BookCount:  len(records),
		ImportedAt: s.now().UTC(),
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO imports (source, book_count, imported_at)
		VALUES (?, ?, ?)`,
		imp.Source, imp.BookCount, formatTime(imp.ImportedAt),
	)
	if err != nil {
		return Import{}, fmt.Errorf("insert import: %w", err)
	}
	if imp.ID, err = res.LastInsertId(); err != nil {
		return Import{}, fmt.Errorf("import id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Import{}, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("Catalog imported", "source", source, "count", imp.BookCount)
	return imp, nil
}

// ListBooks returns the stored records in payload order.
func (s *Store) ListBooks(ctx context.Context) ([]domain.BookRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, authors, publication_date, average_rating, publisher
		FROM books
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	records := []domain.BookRecord{}
	for rows.Next() {
		var (
			rec       domain.BookRecord
			publisher sql.NullString
		)
		if err := rows.Scan(&rec.Title, &rec.Authors, &rec.PublicationDate, &rec.AverageRating, &publisher); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		rec.Publisher = domain.Field(publisher.String)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LastImport returns the most recent import.
// Returns a NOT_FOUND error when nothing was imported yet.
func (s *Store) LastImport(ctx context.Context) (Import, error) {
	var (
		imp        Import
		importedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, book_count, imported_at
		FROM imports
		ORDER BY id DESC
		LIMIT 1`).Scan(&imp.ID, &imp.Source, &imp.BookCount, &importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, domainerrors.NotFound("no catalog imported")
	}
	if err != nil {
		return Import{}, fmt.Errorf("query import: %w", err)
	}

	if imp.ImportedAt, err = parseTime(importedAt); err != nil {
		return Import{}, fmt.Errorf("parse imported_at: %w", err)
	}
	return imp, nil
}

// Payload builds a books payload from the stored catalog.
// Returns a NOT_FOUND error when nothing was imported yet.
func (s *Store) Payload(ctx context.Context) (domain.Payload, error) {
	if _, err := s.LastImport(ctx); err != nil {
		return domain.Payload{}, err
	}
	records, err := s.ListBooks(ctx)
	if err != nil {
		return domain.Payload{}, err
	}
	return domain.NewPayload(records)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString stores "" as NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
