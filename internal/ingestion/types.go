// Package ingestion defines wiki pages, the request/response types of the
// page ingestion API and the Kafka event schema consumed by the indexer.
package ingestion

import "time"

type ContentType string

const (
	ContentPlain ContentType = "plain"
	ContentHTML  ContentType = "html"
)

// Op is the action a PageEvent asks the indexer to perform.
type Op string

const (
	OpStore  Op = "store"
	OpRemove Op = "remove"
)

// PageRequest is the JSON body accepted by the page ingestion endpoint.
type PageRequest struct {
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	TypeTag     string      `json:"type_tag"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"content_type"`
	Keywords    []string    `json:"keywords"`
}

// PageResponse is returned to the caller after a page is accepted.
type PageResponse struct {
	PageID int    `json:"page_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// PageEvent is the Kafka message payload produced whenever a page is stored
// or removed.
type PageEvent struct {
	Op          Op          `json:"op"`
	PageID      int         `json:"page_id"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	TypeTag     string      `json:"type_tag,omitempty"`
	Content     string      `json:"content,omitempty"`
	ContentType ContentType `json:"content_type,omitempty"`
	Keywords    []string    `json:"keywords,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
