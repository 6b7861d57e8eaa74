// Package dto provides request and response types for the book table API.
// These types are used by huma to generate OpenAPI documentation and perform validation.
package dto

// FilterParams are the filter controls as query parameters. Values are kept
// as typed; unparseable ratings fall back to the default bounds.
type FilterParams struct {
	Query     string `query:"q" doc:"Case-insensitive search over title, authors and publisher"`
	MinDate   string `query:"min_date" doc:"Earliest publication date (YYYY-MM-DD or MM/DD/YYYY)"`
	MinRating string `query:"min_rating" doc:"Minimum average rating (default 0)"`
	MaxRating string `query:"max_rating" doc:"Maximum average rating (default 6)"`
}

// Column is a table header.
type Column struct {
	Key   string `json:"key" doc:"Sort key of the column"`
	Label string `json:"label" doc:"Header text"`
}
