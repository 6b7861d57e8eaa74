package commands

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/listenupapp/booktable/internal/booktable"
	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
	"github.com/listenupapp/booktable/internal/loader"
	"github.com/listenupapp/booktable/internal/render"
	"github.com/listenupapp/booktable/internal/validation"
)

// renderOptions are the render flags. JSON names match the flag names so
// validation errors point at the right flag. Filter values are not validated:
// like the web form, an unparseable rating falls back to its default and an
// unparseable date leaves the date filter unset.
type renderOptions struct {
	Source      string        `json:"source" validate:"required"`
	Sort        []string      `json:"sort" validate:"dive,sortkey"`
	Query       string        `json:"q"`
	MinDate     string        `json:"min-date"`
	MinRating   string        `json:"min-rating"`
	MaxRating   string        `json:"max-rating"`
	Mode        string        `json:"mode" validate:"oneof=and or AND OR"`
	Format      string        `json:"format" validate:"oneof=text markdown md html"`
	DateDisplay string        `json:"date-display" validate:"oneof=source dmy"`
	Locale      string        `json:"locale" validate:"required"`
	Title       string        `json:"title"`
	Timeout     time.Duration `json:"timeout"`
	NoPublisher bool          `json:"no-publisher"`
}

func newRenderCmd(global *globalFlags) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Loads a book list and prints it as a table",
		Long: `Loads a book list and prints it as a table.

Sorts are applied in the order given. Each one is stable, so
"--sort rating --sort alpha" lists titles alphabetically with equal
titles ordered by rating.

Sort keys: alpha, author, year, rating, publisher.`,
		Example: `  booktable render --source books.json --sort year --q tolkien
  booktable render --source https://example.com/books.json --format markdown
  booktable render --source sqlite://catalog.db --format html > books.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := global.newLogger(cmd)
			return runRender(cmd.Context(), cmd.OutOrStdout(), log.Logger, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Source, "source", "books.json", "Book payload: file path (.json or .json5), http(s) URL or sqlite://path")
	f.StringArrayVar(&opts.Sort, "sort", nil, "Sort key, repeatable and applied in order")
	f.StringVar(&opts.Query, "q", "", "Case-insensitive search over title, authors and publisher")
	f.StringVar(&opts.MinDate, "min-date", "", "Earliest publication date (YYYY-MM-DD or MM/DD/YYYY)")
	f.StringVar(&opts.MinRating, "min-rating", "", "Minimum average rating (default 0)")
	f.StringVar(&opts.MaxRating, "max-rating", "", "Maximum average rating (default 6)")
	f.StringVar(&opts.Mode, "mode", "and", "How filter conditions combine: and, or")
	f.StringVar(&opts.Format, "format", "text", "Output format: text, markdown, html")
	f.StringVar(&opts.DateDisplay, "date-display", "source", "Publication date display: source, dmy")
	f.StringVar(&opts.Locale, "locale", "en", "Locale for the publisher sort")
	f.StringVar(&opts.Title, "title", render.DefaultTitle, "Page title for html output")
	f.DurationVar(&opts.Timeout, "timeout", loader.DefaultHTTPTimeout, "Timeout for http(s) sources")
	f.BoolVar(&opts.NoPublisher, "no-publisher", false, "Hide the publisher column")

	return cmd
}

func runRender(ctx context.Context, out io.Writer, log *slog.Logger, opts *renderOptions) error {
	if err := validation.New().Validate(opts); err != nil {
		return err
	}

	format, err := render.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	mode, err := booktable.ParseMode(opts.Mode)
	if err != nil {
		return err
	}
	display, err := booktable.ParseDateDisplay(opts.DateDisplay)
	if err != nil {
		return err
	}
	locale, err := language.Parse(opts.Locale)
	if err != nil {
		return domainerrors.Validationf("invalid locale %q", opts.Locale)
	}
	if mode == booktable.ModeOr {
		log.Warn("Filter mode OR is a legacy mode: a book is shown when any one condition matches")
	}
	warnIgnoredFilters(log, opts)

	source, err := loader.NewSource(opts.Source, loader.Options{HTTPTimeout: opts.Timeout})
	if err != nil {
		return err
	}
	if closer, ok := source.(io.Closer); ok {
		defer closer.Close()
	}

	ctrl := booktable.NewController(booktable.Options{
		Logger:        log,
		Mode:          mode,
		DateDisplay:   display,
		Locale:        locale,
		HidePublisher: opts.NoPublisher,
	})

	if err := loader.New(source, ctrl, log).Load(ctx); err != nil {
		return err
	}

	for _, raw := range opts.Sort {
		key, err := booktable.ParseSortKey(raw)
		if err != nil {
			return err
		}
		if err := ctrl.SortBy(key); err != nil {
			return err
		}
	}

	inputs := booktable.RawInputs{
		Query:     opts.Query,
		MinDate:   opts.MinDate,
		MinRating: opts.MinRating,
		MaxRating: opts.MaxRating,
	}

	var sink booktable.Table
	if format == render.FormatHTML {
		sink = render.NewHTMLPage(out, render.Page{
			Inputs: inputs,
			Title:  opts.Title,
			Total:  ctrl.Len(),
		})
	} else {
		sink = render.New(format, out)
	}

	return ctrl.RenderTo(inputs, sink)
}

// warnIgnoredFilters reports filter values the table will ignore.
func warnIgnoredFilters(log *slog.Logger, opts *renderOptions) {
	if opts.MinDate != "" {
		if _, ok := domain.ParseDateInput(opts.MinDate); !ok {
			log.Warn("Ignoring --min-date, expected YYYY-MM-DD or MM/DD/YYYY", "value", opts.MinDate)
		}
	}
	bounds := []struct {
		flag, value string
		fallback    float64
	}{
		{"--min-rating", opts.MinRating, booktable.DefaultMinRating},
		{"--max-rating", opts.MaxRating, booktable.DefaultMaxRating},
	}
	for _, b := range bounds {
		if b.value != "" && !isNumber(b.value) {
			log.Warn("Ignoring "+b.flag+", not a number", "value", b.value, "using", b.fallback)
		}
	}
}

func isNumber(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}
