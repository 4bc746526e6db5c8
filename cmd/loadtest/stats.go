package main

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"time"
)

// Stats aggregates request outcomes per scenario label.
type Stats struct {
	mu        sync.Mutex
	latencies map[string][]time.Duration
	codes     map[int]int64
	failures  int64
	total     int64
}

func NewStats() *Stats {
	return &Stats{
		latencies: make(map[string][]time.Duration),
		codes:     make(map[int]int64),
	}
}

// Record counts one request. A transport error has no status code and
// contributes no latency sample.
func (s *Stats) Record(label string, d time.Duration, status int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if err != nil {
		s.failures++
		return
	}
	if status < 200 || status >= 300 {
		s.failures++
	}
	s.codes[status]++
	s.latencies[label] = append(s.latencies[label], d)
}

func (s *Stats) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Summary is the latency profile of one scenario.
type Summary struct {
	Label  string
	Count  int
	Min    time.Duration
	Mean   time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration
	StdDev time.Duration
}

// Summaries returns one Summary per label, ordered by label.
func (s *Stats) Summaries() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Summary, 0, len(s.latencies))
	for label, samples := range s.latencies {
		out = append(out, summarize(label, slices.Clone(samples)))
	}
	slices.SortFunc(out, func(a, b Summary) int {
		if a.Label < b.Label {
			return -1
		}
		if a.Label > b.Label {
			return 1
		}
		return 0
	})
	return out
}

func summarize(label string, samples []time.Duration) Summary {
	sum := Summary{Label: label, Count: len(samples)}
	if len(samples) == 0 {
		return sum
	}
	slices.Sort(samples)
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	sum.Mean = total / time.Duration(len(samples))
	var sq float64
	for _, d := range samples {
		diff := float64(d - sum.Mean)
		sq += diff * diff
	}
	sum.StdDev = time.Duration(math.Sqrt(sq / float64(len(samples))))
	sum.Min = samples[0]
	sum.Max = samples[len(samples)-1]
	sum.P50 = percentile(samples, 50)
	sum.P95 = percentile(samples, 95)
	sum.P99 = percentile(samples, 99)
	return sum
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}

func (s *Stats) Report(w io.Writer, elapsed time.Duration) {
	s.mu.Lock()
	total, failures := s.total, s.failures
	codes := make([]int, 0, len(s.codes))
	for code := range s.codes {
		codes = append(codes, code)
	}
	s.mu.Unlock()
	slices.Sort(codes)

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Requests:     %d\n", total)
	fmt.Fprintf(w, "Failures:     %d\n", failures)
	if total > 0 {
		fmt.Fprintf(w, "Failure rate: %.2f%%\n", float64(failures)/float64(total)*100)
		fmt.Fprintf(w, "Requests/sec: %.2f\n", float64(total)/elapsed.Seconds())
	}
	for _, sum := range s.Summaries() {
		fmt.Fprintf(w, "\n--- %s (%d) ---\n", sum.Label, sum.Count)
		fmt.Fprintf(w, "min %s  mean %s  p50 %s  p95 %s  p99 %s  max %s  stddev %s\n",
			sum.Min, sum.Mean, sum.P50, sum.P95, sum.P99, sum.Max, sum.StdDev)
	}
	fmt.Fprintln(w, "\n=== Status codes ===")
	s.mu.Lock()
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, s.codes[code])
	}
	s.mu.Unlock()
}
