package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/listenupapp/booktable/internal/booktable"
	"github.com/listenupapp/booktable/internal/render"
)

// handleIndex serves the book table page.
// GET /?q=&min_date=&min_rating=&max_rating=
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	query.Del("sort")

	var notice string
	if !s.controller.Loaded() {
		notice = "No books loaded yet."
	}
	s.writePage(w, query, http.StatusOK, notice)
}

// handleSort sorts the shared list from a header button.
// POST /sort?q=&min_date=&min_rating=&max_rating= with form field key.
//
// On success it redirects to the filtered page, so reloading it does not
// sort again. The route is wrapped in cross-origin protection.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	raw := r.PostFormValue("key")

	key, err := booktable.ParseSortKey(raw)
	if err == nil {
		err = s.controller.SortBy(key)
	}
	if err != nil {
		s.writePage(w, query, http.StatusBadRequest, fmt.Sprintf("Cannot sort by %q.", raw))
		return
	}

	target := "/"
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) writePage(w http.ResponseWriter, query url.Values, status int, notice string) {
	inputs := booktable.RawInputs{
		Query:     query.Get("q"),
		MinDate:   query.Get("min_date"),
		MinRating: query.Get("min_rating"),
		MaxRating: query.Get("max_rating"),
	}

	var buf bytes.Buffer
	page := render.NewHTMLPage(&buf, render.Page{
		Inputs:    inputs,
		Query:     query,
		Notice:    notice,
		Total:     s.controller.Len(),
		Form:      true,
		SortLinks: true,
		Live:      s.events != nil,
	})
	if err := s.controller.RenderTo(inputs, page); err != nil {
		s.logger.Error("Failed to render book table", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("Failed to write page", "error", err)
	}
}
