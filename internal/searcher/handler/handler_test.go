package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/metrics"
)

type page struct {
	id    int
	title string
	tag   string
}

func (p *page) ID() int             { return p.id }
func (p *page) Name() string        { return p.title }
func (p *page) Title() string       { return p.title }
func (p *page) TypeTag() string     { return p.tag }
func (p *page) DateTime() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
func (p *page) Tokenize(text string, location index.WordLocation) []index.WordInfo {
	return tokenizer.Tokenize(text, location)
}

func newHandler(t *testing.T) (*Handler, *indexer.Engine) {
	t.Helper()
	e := indexer.NewEngine(config.IndexerConfig{})
	ctx := context.Background()
	docs := []struct {
		doc     *page
		content string
	}{
		{&page{1, "Go Concurrency", "page"}, "goroutines and channels"},
		{&page{2, "Channels Explained", "page"}, "buffered channels block when full"},
		{&page{3, "Release Notes", "message"}, "channels now support iteration"},
	}
	for _, d := range docs {
		_, err := e.StoreDocument(ctx, d.doc, nil, d.content)
		require.NoError(t, err)
	}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	h := New(executor.New(e), nil, e, m, config.SearchConfig{DefaultLimit: 2, MaxResults: 10, Timeout: time.Second})
	return h, e
}

func doSearch(t *testing.T, h *Handler, target string) (*httptest.ResponseRecorder, executor.Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var resp executor.Response
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestSearchEndpoint(t *testing.T) {
	h, _ := newHandler(t)

	rec, resp := doSearch(t, h, "/api/v1/search?q=channels")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, resp.TotalHits)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.Results[0].DocumentID, "title match ranks first")
	assert.InDelta(t, 100.0, resp.Results[0].Relevance, 1e-9)
	assert.Equal(t, "any", resp.Option)

	_, resp = doSearch(t, h, "/api/v1/search?q=channels&limit=50")
	assert.Len(t, resp.Results, 3)
}

func TestSearchEndpointOptionsAndTypes(t *testing.T) {
	h, _ := newHandler(t)

	_, resp := doSearch(t, h, "/api/v1/search?q=buffered+channels&option=phrase")
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.Results[0].DocumentID)
	assert.Len(t, resp.Results[0].Matches, 2)

	_, resp = doSearch(t, h, "/api/v1/search?q=channels&types=message")
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 3, resp.Results[0].DocumentID)

	_, resp = doSearch(t, h, "/api/v1/search?q=goroutines+iteration&option=all")
	assert.Zero(t, resp.TotalHits)
}

func TestSearchEndpointBadRequests(t *testing.T) {
	h, _ := newHandler(t)
	for _, target := range []string{
		"/api/v1/search",
		"/api/v1/search?q=",
		"/api/v1/search?q=x&option=fuzzy",
		"/api/v1/search?q=x&limit=0",
		"/api/v1/search?q=x&limit=abc",
		"/api/v1/search?q=x&types=",
	} {
		rec, _ := doSearch(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestStatsEndpoint(t *testing.T) {
	h, e := newHandler(t)
	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, e.TotalDocuments(), stats["documents"])
	assert.Equal(t, e.TotalWords(), stats["words"])
	assert.Equal(t, e.TotalOccurrences(), stats["occurrences"])
}

func TestCacheEndpointsWhenDisabled(t *testing.T) {
	h, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "disabled")

	rec = httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
