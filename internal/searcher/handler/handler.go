package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/tracing"
)

type Searcher interface {
	Search(ctx context.Context, params parser.SearchParameters) (*executor.SearchResultCollection, error)
}

type IndexStats interface {
	TotalDocuments() int
	TotalWords() int
	TotalOccurrences() int
}

type Handler struct {
	searcher     Searcher
	cache        *cache.QueryCache
	stats        IndexStats
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	timeout      time.Duration
	logger       *slog.Logger
}

// New builds the search handler. queryCache and m may be nil.
func New(s Searcher, queryCache *cache.QueryCache, stats IndexStats, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	return &Handler{
		searcher:     s,
		cache:        queryCache,
		stats:        stats,
		metrics:      m,
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		timeout:      cfg.Timeout,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search serves GET /api/v1/search?q=&option=&types=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.Start(r.Context(), "search", middleware.GetRequestID(r.Context()))
	log := logger.FromContext(ctx)
	defer func() {
		span.End()
		span.Log(ctx, log)
	}()
	q := r.URL.Query()

	query := q.Get("q")
	if strings.TrimSpace(query) == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	option, err := parser.ParseOption(q.Get("option"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var typeTags []string
	if q.Has("types") {
		typeTags = make([]string, 0)
		for _, tag := range strings.Split(q.Get("types"), ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				typeTags = append(typeTags, tag)
			}
		}
	}
	limit := h.defaultLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, h.maxResults)
	}

	params, err := parser.NewSearchParameters(query, typeTags, option)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	compute := func() (*executor.Response, error) {
		var results *executor.SearchResultCollection
		err := resilience.WithTimeout(ctx, h.timeout, "search", func(ctx context.Context) error {
			var searchErr error
			results, searchErr = h.searcher.Search(ctx, params)
			return searchErr
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
			}
			return nil, err
		}
		return executor.NewResponse(query, option, results.Len(), merger.Top(results, limit)), nil
	}

	var resp *executor.Response
	cacheHit := false
	if h.cache != nil {
		resp, cacheHit, err = h.cache.GetOrCompute(ctx, cache.Key{
			Query:    query,
			Option:   option,
			TypeTags: typeTags,
			Limit:    limit,
		}, compute)
	} else {
		resp, err = compute()
	}
	if err != nil {
		log.Error("search execution failed", "query", query, "error", err)
		h.observe(option, "error", cacheHit, start, 0)
		h.writeError(w, apperrors.HTTPStatusCode(err), "search failed")
		return
	}

	resultType := "hit"
	if resp.TotalHits == 0 {
		resultType = "zero_result"
	}
	span.SetAttr("cache_hit", cacheHit)
	h.observe(option, resultType, cacheHit, start, len(resp.Results))
	log.Info("search completed",
		"query", query,
		"option", option.String(),
		"total_hits", resp.TotalHits,
		"returned", len(resp.Results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) observe(option parser.SearchOption, resultType string, cacheHit bool, start time.Time, returned int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(option.String(), resultType).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
}

// Stats serves the index statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]int{
		"documents":   h.stats.TotalDocuments(),
		"words":       h.stats.TotalWords(),
		"occurrences": h.stats.TotalOccurrences(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
