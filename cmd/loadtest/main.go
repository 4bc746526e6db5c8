// Command loadtest drives the wiki search service with a mix of
// any-word, all-words and phrase queries and reports per-option latency.
//
// With -seed N it first stores N generated pages through the ingestion
// service so the searches have something to match.
//
// Usage:
//
//	go run ./cmd/loadtest -search http://localhost:8080 -ingest http://localhost:8081 -seed 500
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion"
)

var vocabulary = []string{
	"wiki", "page", "namespace", "revision", "discussion", "category",
	"template", "snippet", "attachment", "navigation", "permission",
	"backup", "search", "index", "keyword", "content", "theme", "plugin",
	"provider", "message", "thread", "upload", "history", "editor",
}

var options = []string{"any", "all", "phrase"}

var titleCase = cases.Title(language.English)

func main() {
	searchURL := flag.String("search", "http://localhost:8080", "base URL of the search service")
	ingestURL := flag.String("ingest", "http://localhost:8081", "base URL of the ingestion service")
	seed := flag.Int("seed", 0, "pages to store before the run")
	concurrency := flag.Int("concurrency", 10, "concurrent search workers")
	duration := flag.Duration("duration", 30*time.Second, "length of the search phase")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        *concurrency * 2,
			MaxIdleConnsPerHost: *concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	if *seed > 0 {
		fmt.Printf("Seeding %d pages into %s\n", *seed, *ingestURL)
		seedStats := NewStats()
		start := time.Now()
		if err := seedPages(ctx, client, *ingestURL, *seed, *concurrency, seedStats); err != nil {
			fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
			os.Exit(1)
		}
		seedStats.Report(os.Stdout, time.Since(start))
		fmt.Println()
	}

	fmt.Printf("Searching %s with %d workers for %s\n", *searchURL, *concurrency, *duration)
	stats := NewStats()
	runCtx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()
	start := time.Now()
	g, gctx := errgroup.WithContext(runCtx)
	for w := 0; w < *concurrency; w++ {
		rng := rand.New(rand.NewPCG(uint64(w), uint64(start.UnixNano())))
		g.Go(func() error {
			for gctx.Err() == nil {
				option := options[rng.IntN(len(options))]
				q := url.Values{}
				q.Set("q", randomPhrase(rng, 1+rng.IntN(3)))
				q.Set("option", option)
				q.Set("limit", "10")
				status, d, err := do(gctx, client, http.MethodGet, *searchURL+"/api/v1/search?"+q.Encode(), nil)
				if gctx.Err() != nil {
					return nil
				}
				stats.Record("search/"+option, d, status, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	fmt.Println()
	stats.Report(os.Stdout, time.Since(start))

	if stats.Total() == 0 {
		fmt.Println("\nWARNING: no requests completed. Is the search service running?")
		os.Exit(1)
	}
}

// seedPages stores n generated pages, with at most workers requests in
// flight.
func seedPages(ctx context.Context, client *http.Client, baseURL string, n, workers int, stats *Stats) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		rng := rand.New(rand.NewPCG(uint64(i), 42))
		req := ingestion.PageRequest{
			Name:     fmt.Sprintf("LoadTest%05d", i),
			Title:    titleCase.String(randomPhrase(rng, 3)),
			TypeTag:  ingestion.TypePage,
			Content:  randomPhrase(rng, 40+rng.IntN(200)),
			Keywords: []string{vocabulary[rng.IntN(len(vocabulary))]},
		}
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}
		g.Go(func() error {
			status, d, err := do(gctx, client, http.MethodPost, baseURL+"/api/v1/pages", body)
			stats.Record("store", d, status, err)
			if err != nil {
				return fmt.Errorf("storing %s: %w", req.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func do(ctx context.Context, client *http.Client, method, rawURL string, body []byte) (int, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, time.Since(start), err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, time.Since(start), nil
}

func randomPhrase(rng *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = vocabulary[rng.IntN(len(vocabulary))]
	}
	return strings.Join(parts, " ")
}
