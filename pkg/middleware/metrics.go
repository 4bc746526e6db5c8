// Package middleware provides the HTTP middleware shared by the wiki
// services: request IDs, Prometheus metrics, timeouts, per-client rate
// limiting and CORS.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/metrics"
)

// Metrics records request counts and latency by method, route and status,
// and tracks requests in flight.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)

			m.HTTPRequestsTotal.WithLabelValues(
				r.Method,
				path,
				strconv.Itoa(sw.status),
			).Inc()

			m.HTTPRequestDuration.WithLabelValues(
				r.Method,
				path,
			).Observe(duration)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}

const pagePathPrefix = "/api/v1/pages/"

// normalizePath keeps the path label bounded: page names collapse to
// {name} and paths outside the API and health routes become "other".
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, pagePathPrefix) && len(path) > len(pagePathPrefix):
		return pagePathPrefix + "{name}"
	case strings.HasPrefix(path, "/api/"), strings.HasPrefix(path, "/health"):
		return path
	default:
		return "other"
	}
}
