package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/listenupapp/booktable/internal/loader"
	"github.com/listenupapp/booktable/internal/store/sqlite"
	"github.com/listenupapp/booktable/internal/validation"
)

type importOptions struct {
	Source  string        `json:"source" validate:"required"`
	DB      string        `json:"db" validate:"required"`
	Timeout time.Duration `json:"timeout"`
}

func newImportCmd(global *globalFlags) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copies a book list into a SQLite catalog",
		Long: `Copies a book list into a SQLite catalog, replacing its books.

The server and render can then read it with --source sqlite://<db>.`,
		Example: `  booktable import --source books.json --db catalog.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := global.newLogger(cmd)
			return runImport(cmd.Context(), cmd.OutOrStdout(), log.Logger, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Source, "source", "books.json", "Book payload: file path (.json or .json5) or http(s) URL")
	f.StringVar(&opts.DB, "db", "catalog.db", "SQLite database path")
	f.DurationVar(&opts.Timeout, "timeout", loader.DefaultHTTPTimeout, "Timeout for http(s) sources")

	return cmd
}

func runImport(ctx context.Context, out io.Writer, log *slog.Logger, opts *importOptions) error {
	if err := validation.New().Validate(opts); err != nil {
		return err
	}

	source, err := loader.NewSource(opts.Source, loader.Options{HTTPTimeout: opts.Timeout})
	if err != nil {
		return err
	}
	if closer, ok := source.(io.Closer); ok {
		defer closer.Close()
	}

	payload, err := source.Fetch(ctx)
	if err != nil {
		return err
	}
	records, err := payload.Records()
	if err != nil {
		return err
	}

	store, err := sqlite.Open(opts.DB, log)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	imp, err := store.ReplaceBooks(ctx, source.String(), records)
	if err != nil {
		return fmt.Errorf("import books: %w", err)
	}

	log.Info("Catalog imported", "source", imp.Source, "db", opts.DB, "books", imp.BookCount)
	fmt.Fprintf(out, "Imported %d books from %s into %s\n", imp.BookCount, imp.Source, opts.DB)
	return nil
}
