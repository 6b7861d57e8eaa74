package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	for _, table := range []string{"books", "imports"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_BooksHaveNoSecondaryIndexes(t *testing.T) {
	s := newTestStore(t)

	rows, err := s.db.QueryContext(context.Background(),
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'books' AND name NOT LIKE 'sqlite_autoindex%'`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Empty(t, names)
}

func TestOpen_ReopenKeepsCatalog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	s, err := Open(dbPath, nil)
	require.NoError(t, err)
	_, err = s.ReplaceBooks(context.Background(), "books.json", []domain.BookRecord{{Title: "Dune"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dbPath, nil)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.Field("Dune"), records[0].Title)
}

func TestReplaceBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	first := []domain.BookRecord{
		{Title: "Zed", Authors: "Zoe", PublicationDate: "01/01/2020", AverageRating: "4.5", Publisher: "Penguin"},
		{Title: "Abe", Authors: "Al", PublicationDate: "01/01/2021", AverageRating: "3.0"},
	}
	imp, err := s.ReplaceBooks(ctx, "books.json", first)
	require.NoError(t, err)
	assert.Equal(t, 2, imp.BookCount)
	assert.Positive(t, imp.ID)

	records, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, records)

	second := []domain.BookRecord{{Title: "Only"}}
	_, err = s.ReplaceBooks(ctx, "books1.json", second)
	require.NoError(t, err)

	records, err = s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.Field("Only"), records[0].Title)

	last, err := s.LastImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "books1.json", last.Source)
	assert.Equal(t, 1, last.BookCount)
	assert.True(t, last.ImportedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestReplaceBooks_CanceledContextKeepsCatalog(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ReplaceBooks(context.Background(), "books.json", []domain.BookRecord{{Title: "Kept"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ReplaceBooks(ctx, "other.json", []domain.BookRecord{{Title: "Lost"}})
	require.Error(t, err)

	records, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.Field("Kept"), records[0].Title)
}

func TestLastImport_Empty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LastImport(context.Background())
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	_, err = s.Payload(context.Background())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestPayload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceBooks(ctx, "books.json", []domain.BookRecord{})
	require.NoError(t, err)

	p, err := s.Payload(ctx)
	require.NoError(t, err)
	records, err := p.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}
