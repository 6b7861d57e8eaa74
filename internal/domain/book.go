// Package domain contains the book records shown in the table and their normalization.
package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	domainerrors "github.com/listenupapp/booktable/internal/errors"
)

//nolint:gochecknoglobals // Shared decoder configuration
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Payload is the top-level document served as books.json.
// Books is kept raw so the controller can tell an array from anything else.
type Payload struct {
	Books json.RawMessage `json:"books"`
}

// Field is a scalar payload value. Sources disagree on types ("4.25" vs 4.25),
// so strings, numbers and booleans are all accepted and null becomes "".
type Field string

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := codec.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field(s)
	case data[0] == '{', data[0] == '[':
		// Composite values carry nothing we can display.
		*f = ""
	default:
		*f = Field(data)
	}
	return nil
}

// BookRecord is a book as it appears in the payload.
type BookRecord struct {
	Title           Field `json:"title"`
	Authors         Field `json:"authors"`
	PublicationDate Field `json:"publication_date"`
	AverageRating   Field `json:"average_rating"`
	Publisher       Field `json:"publisher,omitempty"`
}

// Records decodes the books field.
// Returns a MALFORMED_PAYLOAD error when books is missing or not an array.
func (p Payload) Records() ([]BookRecord, error) {
	raw := bytes.TrimSpace(p.Books)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, domainerrors.MalformedPayload("books is not an array")
	}

	var records []BookRecord
	if err := codec.Unmarshal(raw, &records); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeMalformedPayload, "decode books")
	}
	return records, nil
}

// NewPayload builds a payload around the given records.
func NewPayload(records []BookRecord) (Payload, error) {
	if records == nil {
		records = []BookRecord{}
	}
	data, err := codec.Marshal(records)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Books: data}, nil
}

// Book is a normalized record: dates and ratings are parsed once at load time.
type Book struct {
	PublicationDate time.Time `json:"-"`
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Authors         string    `json:"authors"`
	Publisher       string    `json:"publisher"`
	RawDate         string    `json:"publication_date"`
	RawRating       string    `json:"-"`
	Rating          float64   `json:"average_rating"`
	DateValid       bool      `json:"-"`
}

// NewBook normalizes a record. Missing text fields become "", an unparseable
// rating becomes 0 and an unparseable date is marked invalid.
func NewBook(id string, rec BookRecord) Book {
	b := Book{
		ID:        id,
		Title:     string(rec.Title),
		Authors:   string(rec.Authors),
		Publisher: string(rec.Publisher),
		RawDate:   strings.TrimSpace(string(rec.PublicationDate)),
		RawRating: strings.TrimSpace(string(rec.AverageRating)),
	}

	if t, ok := ParsePublicationDate(b.RawDate); ok {
		b.PublicationDate = t
		b.DateValid = true
	}
	b.Rating = ParseRating(b.RawRating)

	return b
}

// RatingText returns the rating as it should be displayed.
func (b Book) RatingText() string {
	if b.RawRating != "" {
		return b.RawRating
	}
	return strconv.FormatFloat(b.Rating, 'f', -1, 64)
}

// ParseRating parses a rating, returning 0 for anything that is not a finite number.
func ParseRating(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
