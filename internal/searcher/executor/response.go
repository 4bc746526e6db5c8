package executor

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/parser"
)

// Response is the serialisable form of a search, as returned by the HTTP
// API and stored in the query cache.
type Response struct {
	Query     string       `json:"query"`
	Option    string       `json:"option"`
	TotalHits int          `json:"total_hits"`
	Results   []ResultView `json:"results"`
}

type ResultView struct {
	DocumentID int         `json:"document_id"`
	Name       string      `json:"name"`
	Title      string      `json:"title"`
	TypeTag    string      `json:"type_tag"`
	DateTime   time.Time   `json:"date_time"`
	Relevance  float64     `json:"relevance"`
	Matches    []MatchView `json:"matches"`
}

type MatchView struct {
	Text           string `json:"text"`
	FirstCharIndex int    `json:"first_char_index"`
	WordIndex      int    `json:"word_index"`
	Location       string `json:"location"`
}

// NewResponse renders results; totalHits is the size of the collection
// the results were cut from.
func NewResponse(query string, option parser.SearchOption, totalHits int, results []*SearchResult) *Response {
	resp := &Response{
		Query:     query,
		Option:    option.String(),
		TotalHits: totalHits,
		Results:   make([]ResultView, 0, len(results)),
	}
	for _, r := range results {
		view := ResultView{
			DocumentID: r.Document.ID(),
			Name:       r.Document.Name(),
			Title:      r.Document.Title(),
			TypeTag:    r.Document.TypeTag(),
			DateTime:   r.Document.DateTime(),
			Relevance:  r.Relevance.Value(),
			Matches:    make([]MatchView, 0, r.Matches.Len()),
		}
		for m := range r.Matches.All() {
			view.Matches = append(view.Matches, MatchView{
				Text:           m.Text,
				FirstCharIndex: m.FirstCharIndex,
				WordIndex:      m.WordIndex,
				Location:       m.Location.String(),
			})
		}
		resp.Results = append(resp.Results, view)
	}
	return resp
}
