package ingestion

import (
	"html"
	"slices"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/tokenizer"
)

// Type tags of the documents a wiki indexes.
const (
	TypePage    = "page"
	TypeMessage = "message"
	TypeFile    = "file"
)

var markup = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// Page is a wiki page. It implements index.Document.
type Page struct {
	id          int
	name        string
	title       string
	typeTag     string
	content     string
	contentType ContentType
	keywords    []string
	updatedAt   time.Time
}

func NewPage(id int, req *PageRequest, updatedAt time.Time) *Page {
	contentType := req.ContentType
	if contentType == "" {
		contentType = ContentPlain
	}
	return &Page{
		id:          id,
		name:        req.Name,
		title:       req.Title,
		typeTag:     req.TypeTag,
		content:     req.Content,
		contentType: contentType,
		keywords:    slices.Clone(req.Keywords),
		updatedAt:   updatedAt.UTC(),
	}
}

// PageFromEvent rebuilds the page carried by a store event.
func PageFromEvent(ev *PageEvent) *Page {
	return NewPage(ev.PageID, &PageRequest{
		Name:        ev.Name,
		Title:       ev.Title,
		TypeTag:     ev.TypeTag,
		Content:     ev.Content,
		ContentType: ev.ContentType,
		Keywords:    ev.Keywords,
	}, ev.UpdatedAt)
}

// PageFromDumped rebuilds a page from its index dump record. The page has
// no content or keywords; it is enough to identify and display search
// results.
func PageFromDumped(d index.DumpedDocument) *Page {
	return NewPage(d.ID, &PageRequest{
		Name:    d.Name,
		Title:   d.Title,
		TypeTag: d.TypeTag,
	}, d.DateTime)
}

func (p *Page) ID() int                  { return p.id }
func (p *Page) Name() string             { return p.name }
func (p *Page) Title() string            { return p.title }
func (p *Page) TypeTag() string          { return p.typeTag }
func (p *Page) DateTime() time.Time      { return p.updatedAt }
func (p *Page) Content() string          { return p.content }
func (p *Page) ContentType() ContentType { return p.contentType }
func (p *Page) Keywords() []string       { return slices.Clone(p.keywords) }

// Tokenize splits text into words. HTML content is reduced to its text
// first, so character offsets refer to the stripped text.
func (p *Page) Tokenize(text string, location index.WordLocation) []index.WordInfo {
	if location == index.LocationContent && p.contentType == ContentHTML {
		text = StripMarkup(text)
	}
	return tokenizer.Tokenize(text, location)
}

// Event renders the page as a PageEvent for op.
func (p *Page) Event(op Op) PageEvent {
	ev := PageEvent{
		Op:        op,
		PageID:    p.id,
		Name:      p.name,
		UpdatedAt: p.updatedAt,
	}
	if op == OpStore {
		ev.Title = p.title
		ev.TypeTag = p.typeTag
		ev.Content = p.content
		ev.ContentType = p.contentType
		ev.Keywords = slices.Clone(p.keywords)
	}
	return ev
}

// StripMarkup removes every tag from s and unescapes entities.
func StripMarkup(s string) string {
	return html.UnescapeString(markup.Sanitize(s))
}
