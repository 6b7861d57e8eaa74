package booktable

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
)

func TestParseSortKey(t *testing.T) {
	for _, key := range SortKeys() {
		got, err := ParseSortKey(" " + string(key) + " ")
		require.NoError(t, err)
		assert.Equal(t, key, got)
	}

	got, err := ParseSortKey("RATING")
	require.NoError(t, err)
	assert.Equal(t, SortRating, got)

	_, err = ParseSortKey("isbn")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnknownSortKey))

	var appErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &appErr))
	assert.Equal(t, "isbn", appErr.Details.(map[string]string)["key"])
}

func TestComparator_UnknownKey(t *testing.T) {
	_, ok := comparator("isbn", collate.New(language.English))
	assert.False(t, ok)
}

func TestCompareFold_UsesCodePointsAfterUpperCasing(t *testing.T) {
	assert.Negative(t, compareFold("apple", "Banana"))
	assert.Positive(t, compareFold("zebra", "Apple"))
	assert.Zero(t, compareFold("dune", "DUNE"))
}

func TestCompareDateDesc(t *testing.T) {
	books := []domain.Book{
		book("Old", "", "", "01/01/1990", "0"),
		book("Bad", "", "", "soon", "0"),
		book("New", "", "", "12/31/2020", "0"),
		book("Mid", "", "", "2005-06-15", "0"),
	}

	slices.SortStableFunc(books, compareDateDesc)

	titles := make([]string, 0, len(books))
	for _, b := range books {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"New", "Mid", "Old", "Bad"}, titles)
}

func TestPublisherCollation(t *testing.T) {
	compare, ok := comparator(SortPublisher, collate.New(language.English, collate.IgnoreCase))
	require.True(t, ok)

	books := []domain.Book{
		book("1", "", "Éditions Zoé", "", ""),
		book("2", "", "ace", "", ""),
		book("3", "", "Editions Alpha", "", ""),
		book("4", "", "", "", ""),
	}
	slices.SortStableFunc(books, compare)

	pubs := make([]string, 0, len(books))
	for _, b := range books {
		pubs = append(pubs, b.Publisher)
	}
	assert.Equal(t, []string{"", "ace", "Editions Alpha", "Éditions Zoé"}, pubs)
}
