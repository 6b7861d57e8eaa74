// Package render turns table renders into HTML, terminal text and Markdown.
//
// Every renderer here implements booktable.Table: Clear starts a new
// snapshot, AppendRow collects rows and Flush writes the whole table.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/listenupapp/booktable/internal/booktable"
)

//go:embed templates/*.html
var templates embed.FS

//nolint:gochecknoglobals // Parsed once at init
var pageTemplate = template.Must(
	template.New("page.html").
		Funcs(template.FuncMap{"sortAction": sortAction}).
		ParseFS(templates, "templates/page.html", "templates/table.html"),
)

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat parses a format name; the empty string selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown format %q (must be text, markdown or html)", s)
	}
}

// New returns a table writing to w in the given format.
func New(format Format, w io.Writer) booktable.Table {
	switch format {
	case FormatHTML:
		return &HTMLPage{w: w, Page: Page{Title: DefaultTitle}}
	case FormatMarkdown:
		return &PrettyTable{w: w, markdown: true}
	default:
		return &PrettyTable{w: w}
	}
}

// Snapshot keeps the columns and rows of the latest render.
type Snapshot struct {
	Columns []booktable.Column `json:"columns"`
	Rows    [][]string         `json:"rows"`
}

// Clear implements booktable.Table.
func (s *Snapshot) Clear(columns []booktable.Column) {
	s.Columns = columns
	s.Rows = [][]string{}
}

// AppendRow implements booktable.Table.
func (s *Snapshot) AppendRow(cells []string) {
	s.Rows = append(s.Rows, cells)
}

// Flush implements booktable.Table.
func (s *Snapshot) Flush() error { return nil }

// PrettyTable writes a boxed terminal table, or a Markdown table.
type PrettyTable struct {
	w        io.Writer
	Snapshot
	markdown bool
}

// NewText returns a terminal table writer.
func NewText(w io.Writer) *PrettyTable {
	return &PrettyTable{w: w}
}

// NewMarkdown returns a Markdown table writer.
func NewMarkdown(w io.Writer) *PrettyTable {
	return &PrettyTable{w: w, markdown: true}
}

// Flush renders the collected rows.
func (p *PrettyTable) Flush() error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(p.Columns))
	configs := make([]table.ColumnConfig, 0, len(p.Columns))
	for i, col := range p.Columns {
		header = append(header, col.Label)
		if col.Key == booktable.SortRating {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, cells := range p.Rows {
		row := make(table.Row, 0, len(cells))
		for _, c := range cells {
			row = append(row, c)
		}
		t.AppendRow(row)
	}

	var out string
	if p.markdown {
		out = t.RenderMarkdown()
	} else {
		out = t.Render()
	}
	_, err := io.WriteString(p.w, out+"\n")
	return err
}

// DefaultTitle is the page heading.
const DefaultTitle = "Books"

// Page is the data of the HTML page.
type Page struct {
	Inputs booktable.RawInputs
	// Query is carried into the header sort links so sorting keeps the filter.
	Query  url.Values
	Title  string
	Notice string
	Total  int
	// Form shows the filter form, SortLinks turns headers into sort buttons
	// posting to /sort and Live reloads the page on catalog events. All are
	// off for static exports.
	Form      bool
	SortLinks bool
	Live      bool
}

// HTMLPage writes a full HTML page around the table.
type HTMLPage struct {
	w io.Writer
	Snapshot
	Page Page
}

// NewHTMLPage returns an HTML page writer.
func NewHTMLPage(w io.Writer, page Page) *HTMLPage {
	if page.Title == "" {
		page.Title = DefaultTitle
	}
	return &HTMLPage{w: w, Page: page}
}

type tableView struct {
	Query     url.Values
	Columns   []booktable.Column
	Rows      [][]string
	SortLinks bool
}

type pageView struct {
	Page
	Table tableView
}

// Flush executes the page template.
func (h *HTMLPage) Flush() error {
	total := h.Page.Total
	if total < len(h.Rows) {
		total = len(h.Rows)
	}
	view := pageView{Page: h.Page, Table: tableView{
		Query:     h.Page.Query,
		Columns:   h.Columns,
		Rows:      h.Rows,
		SortLinks: h.Page.SortLinks,
	}}
	view.Total = total

	if err := pageTemplate.Execute(h.w, view); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}
	return nil
}

// sortAction is the target of the header sort buttons. It carries the filter
// query so the redirect after sorting lands on the same filtered page.
func sortAction(query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		if k != "sort" && k != "key" {
			q[k] = v
		}
	}
	if len(q) == 0 {
		return "/sort"
	}
	return "/sort?" + q.Encode()
}
