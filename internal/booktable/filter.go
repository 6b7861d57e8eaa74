package booktable

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
)

// Mode selects how the filter conditions combine.
type Mode string

const (
	// ModeAnd requires a text match, the date condition and the rating condition.
	ModeAnd Mode = "and"

	// ModeOr accepts a book when any condition holds. An unset minimum date
	// satisfies the date condition, so this mode rarely excludes anything.
	// It reproduces the behavior of the first published table and is kept
	// for deployments that relied on it.
	ModeOr Mode = "or"
)

// ParseMode parses a mode name. The empty string selects ModeAnd.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAnd:
		return ModeAnd, nil
	case ModeOr:
		return ModeOr, nil
	default:
		return "", domainerrors.Validationf("invalid filter mode %q (must be and or or)", s)
	}
}

// Rating bounds used when an input is empty or not a number.
const (
	DefaultMinRating = 0
	DefaultMaxRating = 6
)

// RawInputs are the filter controls exactly as the user typed them.
type RawInputs struct {
	Query     string `json:"q"`
	MinDate   string `json:"min_date"`
	MinRating string `json:"min_rating"`
	MaxRating string `json:"max_rating"`
}

// Filter is the parsed form of RawInputs.
type Filter struct {
	MinDate         time.Time
	Query           string // trimmed and upper-cased
	Mode            Mode
	MinRating       float64
	MaxRating       float64
	HasMinDate      bool
	SearchPublisher bool
}

// ParseFilter parses raw inputs. Nothing here fails: an unparseable date
// leaves the date filter unset and unparseable ratings fall back to the defaults.
func ParseFilter(in RawInputs, mode Mode, searchPublisher bool) Filter {
	f := Filter{
		Query:           strings.ToUpper(strings.TrimSpace(in.Query)),
		Mode:            mode,
		MinRating:       parseBound(in.MinRating, DefaultMinRating),
		MaxRating:       parseBound(in.MaxRating, DefaultMaxRating),
		SearchPublisher: searchPublisher,
	}
	f.MinDate, f.HasMinDate = domain.ParseDateInput(in.MinDate)
	return f
}

func parseBound(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Match reports whether the book passes the filter.
func (f Filter) Match(b domain.Book) bool {
	text := f.matchesText(b)
	date := f.matchesDate(b)
	rating := b.Rating >= f.MinRating && b.Rating <= f.MaxRating

	if f.Mode == ModeOr {
		return text || date || rating
	}
	return text && date && rating
}

func (f Filter) matchesText(b domain.Book) bool {
	if f.Query == "" {
		return true
	}
	if strings.Contains(strings.ToUpper(b.Title), f.Query) ||
		strings.Contains(strings.ToUpper(b.Authors), f.Query) {
		return true
	}
	return f.SearchPublisher && strings.Contains(strings.ToUpper(b.Publisher), f.Query)
}

func (f Filter) matchesDate(b domain.Book) bool {
	if !f.HasMinDate {
		return true
	}
	return b.DateValid && !b.PublicationDate.Before(f.MinDate)
}

// Visible returns the books passing f, in their current order.
// The input slice is not modified.
func Visible(books []domain.Book, f Filter) []domain.Book {
	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}
