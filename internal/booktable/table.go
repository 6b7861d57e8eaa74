package booktable

import (
	"strings"

	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
)

// Table receives rendered rows. Every render starts with Clear, so no row
// survives from a previous render.
type Table interface {
	// Clear drops all rows and sets the column header.
	Clear(columns []Column)
	// AppendRow adds one row with one cell per column.
	AppendRow(cells []string)
	// Flush completes the render.
	Flush() error
}

// InputSource supplies the current filter controls. It is read at render
// time and never cached.
type InputSource interface {
	Inputs() RawInputs
}

// StaticInputs is an InputSource with fixed values.
type StaticInputs RawInputs

// Inputs implements InputSource.
func (s StaticInputs) Inputs() RawInputs { return RawInputs(s) }

// InputFunc adapts a function to InputSource.
type InputFunc func() RawInputs

// Inputs implements InputSource.
func (f InputFunc) Inputs() RawInputs { return f() }

// Column is a table header cell. Clicking it sorts by Key.
type Column struct {
	Key   SortKey `json:"key"`
	Label string  `json:"label"`
}

// ColumnsFor returns the table columns; the publisher column is optional.
func ColumnsFor(publisher bool) []Column {
	cols := []Column{
		{Key: SortAlpha, Label: "Title"},
		{Key: SortAuthor, Label: "Authors"},
		{Key: SortYear, Label: "Publication Date"},
		{Key: SortRating, Label: "Rating"},
	}
	if publisher {
		cols = append(cols, Column{Key: SortPublisher, Label: "Publisher"})
	}
	return cols
}

// DateDisplay selects how publication dates are shown.
type DateDisplay string

const (
	// DateSource shows the date as it appears in the payload.
	DateSource DateDisplay = "source"
	// DateDayMonth shows MM/DD/YYYY dates as DD/MM/YYYY.
	DateDayMonth DateDisplay = "dmy"
)

// ParseDateDisplay parses a display name. The empty string selects DateSource.
func ParseDateDisplay(s string) (DateDisplay, error) {
	switch DateDisplay(strings.ToLower(strings.TrimSpace(s))) {
	case "", DateSource:
		return DateSource, nil
	case DateDayMonth:
		return DateDayMonth, nil
	default:
		return "", domainerrors.Validationf("invalid date display %q (must be source or dmy)", s)
	}
}

// Cells projects a book onto the given columns.
func Cells(b domain.Book, columns []Column, display DateDisplay) []string {
	cells := make([]string, 0, len(columns))
	for _, col := range columns {
		switch col.Key {
		case SortAlpha:
			cells = append(cells, b.Title)
		case SortAuthor:
			cells = append(cells, b.Authors)
		case SortYear:
			if display == DateDayMonth {
				cells = append(cells, domain.ReformatDate(b.RawDate))
			} else {
				cells = append(cells, b.RawDate)
			}
		case SortRating:
			cells = append(cells, b.RatingText())
		case SortPublisher:
			cells = append(cells, b.Publisher)
		default:
			cells = append(cells, "")
		}
	}
	return cells
}

// Rows projects every book onto the given columns.
func Rows(books []domain.Book, columns []Column, display DateDisplay) [][]string {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, Cells(b, columns, display))
	}
	return rows
}

// discardTable drops everything. Used when no sink is configured.
type discardTable struct{}

func (discardTable) Clear([]Column) {}

func (discardTable) AppendRow([]string) {}

func (discardTable) Flush() error { return nil }
