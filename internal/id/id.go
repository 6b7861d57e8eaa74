// Package id generates the prefixed identifiers attached to loaded books.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PrefixBook prefixes the IDs of normalized books.
const PrefixBook = "book"

// bookIDLength keeps row IDs short; they only need to be unique within one loaded list.
const bookIDLength = 12

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "book-V1StGXR8_Z5j").
func Generate(prefix string) (string, error) {
	return GenerateSize(prefix, bookIDLength)
}

// GenerateSize is like Generate with an explicit NanoID length.
func GenerateSize(prefix string, size int) (string, error) {
	id, err := gonanoid.New(size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewBookID returns an ID for a normalized book.
func NewBookID() (string, error) {
	return Generate(PrefixBook)
}
