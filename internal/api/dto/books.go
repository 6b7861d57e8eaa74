package dto

import "time"

// Book is one visible table row.
type Book struct {
	ID              string   `json:"id" doc:"Row identifier, stable until the next reload"`
	Title           string   `json:"title" doc:"Book title"`
	Authors         string   `json:"authors" doc:"Authors as given in the payload"`
	PublicationDate string   `json:"publication_date" doc:"Publication date in the configured display format"`
	AverageRating   string   `json:"average_rating" doc:"Average rating as given in the payload"`
	Publisher       string   `json:"publisher,omitempty" doc:"Publisher, omitted when the column is hidden"`
	Cells           []string `json:"cells" doc:"The row exactly as rendered in the table"`
}

// BookTable is the filtered table in its current order.
type BookTable struct {
	Columns []Column `json:"columns" doc:"Table headers"`
	Books   []Book   `json:"books" doc:"Visible rows"`
	Mode    string   `json:"mode" doc:"How filter conditions combine (and, or)"`
	Count   int      `json:"count" doc:"Number of visible rows"`
	Total   int      `json:"total" doc:"Number of loaded books"`
}

// ListBooksInput is the input for listing visible books.
type ListBooksInput struct {
	FilterParams
}

// BookTableOutput wraps the table for huma.
type BookTableOutput struct {
	Body BookTable
}

// SortRequest is the request body for sorting the book list.
type SortRequest struct {
	Key string `json:"key" validate:"required,sortkey" doc:"Sort key: alpha, author, year, rating or publisher"`
}

// SortInput wraps the sort request for huma. The filter applies to the returned rows.
type SortInput struct {
	FilterParams
	Body SortRequest
}

// ReloadResponse describes the outcome of a reload.
type ReloadResponse struct {
	LastAttempt time.Time `json:"last_attempt" doc:"When the source was last fetched"`
	LastSuccess time.Time `json:"last_success,omitzero" doc:"When the source last loaded successfully"`
	Source      string    `json:"source" doc:"Configured book source"`
	Count       int       `json:"count" doc:"Number of loaded books"`
}

// ReloadOutput wraps the reload response for huma.
type ReloadOutput struct {
	Body ReloadResponse
}
