package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/booktable/internal/api/dto"
	"github.com/listenupapp/booktable/internal/booktable"
	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the books passing the filter, in the current sort order",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "sortBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/sort",
		Summary:     "Sort books",
		Description: "Stable-sorts the shared book list by a column. Sorts are cumulative: ties keep the previous order.",
		Tags:        []string{"Books"},
	}, s.handleSortBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "reloadBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/reload",
		Summary:     "Reload books",
		Description: "Fetches the configured source again. On failure the current books stay in place.",
		Tags:        []string{"Books"},
	}, s.handleReloadBooks)
}

func (s *Server) handleListBooks(_ context.Context, input *dto.ListBooksInput) (*dto.BookTableOutput, error) {
	if !s.controller.Loaded() {
		return nil, domainerrors.NotLoaded("No books have been loaded yet")
	}
	return &dto.BookTableOutput{Body: s.bookTable(input.FilterParams)}, nil
}

func (s *Server) handleSortBooks(_ context.Context, input *dto.SortInput) (*dto.BookTableOutput, error) {
	if err := s.validator.Validate(&input.Body); err != nil {
		return nil, err
	}

	key, err := booktable.ParseSortKey(input.Body.Key)
	if err != nil {
		return nil, err
	}
	if err := s.controller.SortBy(key); err != nil {
		return nil, err
	}

	return &dto.BookTableOutput{Body: s.bookTable(input.FilterParams)}, nil
}

func (s *Server) handleReloadBooks(ctx context.Context, _ *struct{}) (*dto.ReloadOutput, error) {
	if s.catalog == nil {
		return nil, domainerrors.SourceUnavailable("No book source configured")
	}
	if err := s.catalog.Load(ctx); err != nil {
		return nil, err
	}

	status := s.catalog.Status()
	return &dto.ReloadOutput{Body: dto.ReloadResponse{
		LastAttempt: status.LastAttempt,
		LastSuccess: status.LastSuccess,
		Source:      status.Source,
		Count:       s.controller.Len(),
	}}, nil
}

// bookTable builds the filtered table response.
func (s *Server) bookTable(params dto.FilterParams) dto.BookTable {
	columns := s.controller.Columns()
	display := s.controller.DateDisplay()
	visible := s.controller.Visible(rawInputs(params))

	table := dto.BookTable{
		Columns: make([]dto.Column, 0, len(columns)),
		Books:   make([]dto.Book, 0, len(visible)),
		Mode:    string(s.controller.Mode()),
		Count:   len(visible),
		Total:   s.controller.Len(),
	}
	publisher := false
	for _, col := range columns {
		table.Columns = append(table.Columns, dto.Column{Key: string(col.Key), Label: col.Label})
		publisher = publisher || col.Key == booktable.SortPublisher
	}

	for _, b := range visible {
		table.Books = append(table.Books, toBookDTO(b, columns, display, publisher))
	}
	return table
}

func toBookDTO(b domain.Book, columns []booktable.Column, display booktable.DateDisplay, publisher bool) dto.Book {
	date := b.RawDate
	if display == booktable.DateDayMonth {
		date = domain.ReformatDate(date)
	}
	out := dto.Book{
		ID:              b.ID,
		Title:           b.Title,
		Authors:         b.Authors,
		PublicationDate: date,
		AverageRating:   b.RatingText(),
		Cells:           booktable.Cells(b, columns, display),
	}
	if publisher {
		out.Publisher = b.Publisher
	}
	return out
}

func rawInputs(p dto.FilterParams) booktable.RawInputs {
	return booktable.RawInputs{
		Query:     p.Query,
		MinDate:   p.MinDate,
		MinRating: p.MinRating,
		MaxRating: p.MaxRating,
	}
}
