package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getPage(t *testing.T, ts *testServer, target string) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if rec.Code == http.StatusSeeOther {
		return rec, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return rec, doc
}

func postSort(t *testing.T, ts *testServer, target, key string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(url.Values{"key": {key}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for name, values := range header {
		req.Header[name] = values
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func rowTitles(doc *goquery.Document) []string {
	out := []string{}
	doc.Find("table#books tbody tr").Each(func(_ int, tr *goquery.Selection) {
		out = append(out, strings.TrimSpace(tr.Find("td").First().Text()))
	})
	return out
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, true, nil)

	rec, doc := getPage(t, ts, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	assert.Equal(t, []string{"Zed", "Abe", "Dune"}, rowTitles(doc))
	assert.Equal(t, 1, doc.Find("form#filters").Length())
	assert.Equal(t, 5, doc.Find("table#books thead th").Length())
	assert.Equal(t, "3 of 3 books", strings.TrimSpace(doc.Find("p.count").Text()))

	assert.Zero(t, doc.Find("a").Length())
	action, ok := doc.Find("form.sort").Has("button#rating").Attr("action")
	require.True(t, ok)
	assert.Equal(t, "/sort", action)

	assert.Contains(t, doc.Find("script").Text(), "/api/v1/events")
}

func TestIndex_Filter(t *testing.T) {
	ts := newTestServer(t, true, nil)

	rec, doc := getPage(t, ts, "/?q=abe&min_rating=1")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"Abe"}, rowTitles(doc))
	assert.Equal(t, "1 of 3 books", strings.TrimSpace(doc.Find("p.count").Text()))

	value, _ := doc.Find("input#q").Attr("value")
	assert.Equal(t, "abe", value)

	// Sort buttons keep the filter.
	action, _ := doc.Find("form.sort").Has("button#alpha").Attr("action")
	assert.Equal(t, "/sort?min_rating=1&q=abe", action)
}

func TestSort_Redirects(t *testing.T) {
	ts := newTestServer(t, true, nil)

	rec := postSort(t, ts, "/sort?q=e", "alpha", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?q=e", rec.Header().Get("Location"))

	_, doc := getPage(t, ts, "/?q=e")
	assert.Equal(t, []string{"Abe", "Dune", "Zed"}, rowTitles(doc))

	// Sorting without a filter redirects to the bare page.
	rec = postSort(t, ts, "/sort", "rating", http.Header{"Sec-Fetch-Site": {"same-origin"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	_, doc = getPage(t, ts, "/")
	assert.Equal(t, []string{"Zed", "Dune", "Abe"}, rowTitles(doc))
}

func TestSort_UnknownKey(t *testing.T) {
	ts := newTestServer(t, true, nil)

	rec := postSort(t, ts, "/sort", "isbn", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	assert.Contains(t, doc.Find("p.notice").Text(), `"isbn"`)
	assert.Equal(t, []string{"Zed", "Abe", "Dune"}, rowTitles(doc))
}

func TestSort_CrossSiteRejected(t *testing.T) {
	ts := newTestServer(t, true, nil)

	rec := postSort(t, ts, "/sort", "alpha", http.Header{"Sec-Fetch-Site": {"cross-site"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postSort(t, ts, "/sort", "alpha", http.Header{"Origin": {"https://evil.example"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, doc := getPage(t, ts, "/")
	assert.Equal(t, []string{"Zed", "Abe", "Dune"}, rowTitles(doc))
}

func TestIndex_GetDoesNotSort(t *testing.T) {
	ts := newTestServer(t, true, nil)

	rec, doc := getPage(t, ts, "/?q=e&sort=alpha")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Zed", "Abe", "Dune"}, rowTitles(doc))

	action, _ := doc.Find("form.sort").Has("button#alpha").Attr("action")
	assert.Equal(t, "/sort?q=e", action)
}

func TestIndex_NotLoaded(t *testing.T) {
	ts := newTestServer(t, false, nil)

	rec, doc := getPage(t, ts, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "No books loaded yet.", strings.TrimSpace(doc.Find("p.notice").Text()))
	assert.Empty(t, rowTitles(doc))
}

func TestIndex_HiddenPublisher(t *testing.T) {
	ts := newTestServer(t, true, nil, withHiddenPublisher())

	_, doc := getPage(t, ts, "/")
	assert.Equal(t, 4, doc.Find("table#books thead th").Length())
	assert.Equal(t, 0, doc.Find("button#publisher").Length())
}
