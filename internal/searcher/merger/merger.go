// Package merger cuts a result collection down to its best entries.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/executor"
)

// Top returns at most limit results by descending relevance, ties broken
// by ascending document ID. A non-positive limit defaults to 10.
func Top(results *executor.SearchResultCollection, limit int) []*executor.SearchResult {
	if limit <= 0 {
		limit = 10
	}
	h := &resultHeap{}
	heap.Init(h)
	for r := range results.All() {
		heap.Push(h, r)
		if h.Len() > limit {
			heap.Pop(h)
		}
	}
	out := make([]*executor.SearchResult, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(*executor.SearchResult)
	}
	return out
}

// resultHeap is a min-heap: the weakest result sits at the root.
type resultHeap []*executor.SearchResult

func (h resultHeap) Len() int { return len(h) }

func (h resultHeap) Less(i, j int) bool {
	ri, rj := h[i].Relevance.Value(), h[j].Relevance.Value()
	if ri != rj {
		return ri < rj
	}
	return h[i].Document.ID() > h[j].Document.ID()
}

func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) {
	*h = append(*h, x.(*executor.SearchResult))
}

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
