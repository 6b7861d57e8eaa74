package booktable

import (
	"cmp"
	"strings"

	"golang.org/x/text/collate"

	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
)

// SortKey identifies a column header and the comparator it selects.
type SortKey string

// Sort keys, matching the header identifiers of the table.
const (
	SortAlpha     SortKey = "alpha"
	SortAuthor    SortKey = "author"
	SortYear      SortKey = "year"
	SortRating    SortKey = "rating"
	SortPublisher SortKey = "publisher"
)

// SortKeys returns every sort key in column order.
func SortKeys() []SortKey {
	return []SortKey{SortAlpha, SortAuthor, SortYear, SortRating, SortPublisher}
}

// ParseSortKey returns the key for a header identifier.
// Unknown identifiers yield an UNKNOWN_SORT_KEY error.
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range SortKeys() {
		if k == key {
			return k, nil
		}
	}
	return "", domainerrors.UnknownSortKey(s)
}

// comparator returns the ordering function for key.
// The collator is only used by SortPublisher and must not be shared across goroutines.
func comparator(key SortKey, collator *collate.Collator) (func(a, b domain.Book) int, bool) {
	switch key {
	case SortAlpha:
		return func(a, b domain.Book) int { return compareFold(a.Title, b.Title) }, true
	case SortAuthor:
		return func(a, b domain.Book) int { return compareFold(a.Authors, b.Authors) }, true
	case SortYear:
		return compareDateDesc, true
	case SortRating:
		return func(a, b domain.Book) int { return cmp.Compare(b.Rating, a.Rating) }, true
	case SortPublisher:
		return func(a, b domain.Book) int {
			return collator.CompareString(strings.ToUpper(a.Publisher), strings.ToUpper(b.Publisher))
		}, true
	default:
		return nil, false
	}
}

// compareFold orders upper-cased strings by code point.
func compareFold(a, b string) int {
	return strings.Compare(strings.ToUpper(a), strings.ToUpper(b))
}

// compareDateDesc orders newest first. Books without a usable date sink to the end.
func compareDateDesc(a, b domain.Book) int {
	switch {
	case a.DateValid && b.DateValid:
		return b.PublicationDate.Compare(a.PublicationDate)
	case a.DateValid:
		return -1
	case b.DateValid:
		return 1
	default:
		return 0
	}
}
