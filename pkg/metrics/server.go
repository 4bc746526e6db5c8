package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"
)

// Route is an extra admin endpoint served next to /metrics, such as the
// service's health probes.
type Route struct {
	Pattern string
	Handler http.Handler
}

// NewMux serves the scrape endpoint, the given routes and, at the root, a
// JSON listing of every registered pattern.
func NewMux(routes ...Route) *http.ServeMux {
	mux := http.NewServeMux()
	patterns := []string{"GET /metrics"}
	mux.Handle("GET /metrics", Handler())
	for _, r := range routes {
		mux.Handle(r.Pattern, r.Handler)
		patterns = append(patterns, r.Pattern)
	}
	slices.Sort(patterns)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{"endpoints": patterns})
	})
	return mux
}

// StartServer runs the admin server on port in the background and returns
// its shutdown function.
func StartServer(port int, routes ...Route) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewMux(routes...),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("admin server listening", "addr", server.Addr, "routes", len(routes))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("admin server error", "error", err)
		}
	}()

	return server.Shutdown
}
