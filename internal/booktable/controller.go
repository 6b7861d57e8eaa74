// Package booktable holds the loaded book list and projects it into table rows.
//
// The Controller owns the list. SortBy reorders it in place (sorts are
// cumulative: nothing remembers the load order), while filtering only
// decides which books reach the table. Every render replaces all rows.
package booktable

import (
	"io"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
	"github.com/listenupapp/booktable/internal/id"
)

// ChangeKind describes what happened to the book list.
type ChangeKind string

// Change kinds reported to Options.OnChange.
const (
	ChangeLoaded ChangeKind = "loaded"
	ChangeSorted ChangeKind = "sorted"
)

// Change is reported after the book list is replaced or reordered.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	SortKey SortKey    `json:"sort_key,omitempty"`
	Count   int        `json:"count"`
}

// Options configures a Controller.
type Options struct {
	// Inputs supplies the filter controls read by Render. Optional.
	Inputs InputSource
	// Sink receives the rows produced by Render. Optional.
	Sink Table
	// Logger for load diagnostics (uses discard if nil).
	Logger *slog.Logger
	// OnChange is called after Load and SortBy, outside the lock. Optional.
	OnChange func(Change)
	// NewID generates book IDs (defaults to id.NewBookID).
	NewID func() (string, error)
	// Mode combines the filter conditions (defaults to ModeAnd).
	Mode Mode
	// DateDisplay selects the publication date format (defaults to DateSource).
	DateDisplay DateDisplay
	// Locale drives the publisher collation (defaults to English).
	Locale language.Tag
	// HidePublisher drops the publisher column and its text search.
	HidePublisher bool
}

// Controller holds the book list and renders it.
//
// Thread safety: all methods are safe for concurrent use. Load and SortBy
// take the write lock, so a render never observes a partially sorted list.
type Controller struct {
	inputs   InputSource
	sink     Table
	logger   *slog.Logger
	onChange func(Change)
	newID    func() (string, error)
	collator *collate.Collator // guarded by mu (write lock)

	mode    Mode
	display DateDisplay
	columns []Column
	books   []domain.Book

	mu     sync.RWMutex
	sinkMu sync.Mutex // serializes renders into the default sink
	loaded bool
}

// NewController creates a controller with an empty book list.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	inputs := opts.Inputs
	if inputs == nil {
		inputs = StaticInputs{}
	}
	sink := opts.Sink
	if sink == nil {
		sink = discardTable{}
	}
	newID := opts.NewID
	if newID == nil {
		newID = id.NewBookID
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeAnd
	}
	display := opts.DateDisplay
	if display == "" {
		display = DateSource
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = language.English
	}

	return &Controller{
		inputs:   inputs,
		sink:     sink,
		logger:   logger,
		onChange: opts.OnChange,
		newID:    newID,
		collator: collate.New(locale, collate.IgnoreCase),
		mode:     mode,
		display:  display,
		columns:  ColumnsFor(!opts.HidePublisher),
	}
}

// Load replaces the book list with the payload's books and renders.
//
// When books is not an array the payload is reported, nothing is rendered
// and the previous list stays in place.
func (c *Controller) Load(payload domain.Payload) error {
	records, err := payload.Records()
	if err != nil {
		c.logger.Error("Invalid book data",
			"books", preview(payload.Books),
			"error", err,
		)
		return err
	}

	books := make([]domain.Book, 0, len(records))
	for _, rec := range records {
		bookID, err := c.newID()
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "generate book id")
		}
		books = append(books, domain.NewBook(bookID, rec))
	}

	c.mu.Lock()
	c.books = books
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("Books loaded", "count", len(books))
	c.notify(Change{Kind: ChangeLoaded, Count: len(books)})

	return c.Render()
}

// SortBy reorders the list in place with the comparator for key, then renders.
func (c *Controller) SortBy(key SortKey) error {
	c.mu.Lock()
	compare, ok := comparator(key, c.collator)
	if !ok {
		c.mu.Unlock()
		return domainerrors.UnknownSortKey(string(key))
	}
	slices.SortStableFunc(c.books, compare)
	count := len(c.books)
	c.mu.Unlock()

	c.logger.Debug("Books sorted", "key", key, "count", count)
	c.notify(Change{Kind: ChangeSorted, SortKey: key, Count: count})

	return c.Render()
}

// Render projects the list into the configured sink using the configured inputs.
func (c *Controller) Render() error {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	return c.RenderTo(c.inputs.Inputs(), c.sink)
}

// RenderTo projects the list into sink using the given inputs.
func (c *Controller) RenderTo(inputs RawInputs, sink Table) error {
	visible := c.Visible(inputs)

	sink.Clear(c.columns)
	for _, cells := range Rows(visible, c.columns, c.display) {
		sink.AppendRow(cells)
	}
	return sink.Flush()
}

// Visible returns the books passing the filter described by inputs, in list order.
func (c *Controller) Visible(inputs RawInputs) []domain.Book {
	f := c.Filter(inputs)

	c.mu.RLock()
	defer c.mu.RUnlock()
	return Visible(c.books, f)
}

// Filter parses inputs with the controller's mode and columns.
func (c *Controller) Filter(inputs RawInputs) Filter {
	return ParseFilter(inputs, c.mode, c.hasPublisher())
}

// Books returns a copy of the list in its current order.
func (c *Controller) Books() []domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.books)
}

// Len returns the number of loaded books.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.books)
}

// Loaded reports whether a payload has been loaded successfully.
func (c *Controller) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Columns returns the table columns.
func (c *Controller) Columns() []Column {
	return slices.Clone(c.columns)
}

// Mode returns the filter mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// DateDisplay returns the date display format.
func (c *Controller) DateDisplay() DateDisplay {
	return c.display
}

func (c *Controller) hasPublisher() bool {
	for _, col := range c.columns {
		if col.Key == SortPublisher {
			return true
		}
	}
	return false
}

func (c *Controller) notify(change Change) {
	if c.onChange != nil {
		c.onChange(change)
	}
}

// preview shortens a raw payload value for logging.
func preview(raw []byte) string {
	const maxLen = 200
	if len(raw) == 0 {
		return "<missing>"
	}
	if len(raw) > maxLen {
		return string(raw[:maxLen]) + "…"
	}
	return string(raw)
}
