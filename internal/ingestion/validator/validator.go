// Package validator provides input validation for page ingestion requests.
// It enforces length limits and the allowed content types and returns
// per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion"
)

const (
	maxNameLength    = 255
	maxTitleLength   = 1024
	maxTypeTagLength = 64
	maxContentLength = 1048576
	maxKeywords      = 50
	maxKeywordLength = 100
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// ValidatePageRequest checks the fields of req and returns a
// ValidationError listing every problem found.
func ValidatePageRequest(req *ingestion.PageRequest) error {
	errs := make(map[string]string)

	if msg := ValidateName(req.Name); msg != "" {
		errs["name"] = msg
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}

	tag := strings.TrimSpace(req.TypeTag)
	if tag == "" {
		errs["type_tag"] = "type tag is required"
	} else if len(tag) > maxTypeTagLength {
		errs["type_tag"] = fmt.Sprintf("type tag must be at most %d characters", maxTypeTagLength)
	}

	if len(req.Content) > maxContentLength {
		errs["content"] = fmt.Sprintf("content must be at most %d bytes", maxContentLength)
	}

	switch req.ContentType {
	case "", ingestion.ContentPlain, ingestion.ContentHTML:
	default:
		errs["content_type"] = fmt.Sprintf("content type must be %q or %q", ingestion.ContentPlain, ingestion.ContentHTML)
	}

	if len(req.Keywords) > maxKeywords {
		errs["keywords"] = fmt.Sprintf("at most %d keywords are allowed", maxKeywords)
	} else {
		for i, kw := range req.Keywords {
			if strings.TrimSpace(kw) == "" {
				errs["keywords"] = fmt.Sprintf("keyword %d must not be empty", i)
				break
			}
			if len(kw) > maxKeywordLength {
				errs["keywords"] = fmt.Sprintf("keyword %d must be at most %d characters", i, maxKeywordLength)
				break
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateName checks a page name and returns a message describing the
// problem, or "" when the name is acceptable. Names appear in URL paths.
func ValidateName(name string) string {
	switch {
	case strings.TrimSpace(name) == "":
		return "name is required"
	case len(name) > maxNameLength:
		return fmt.Sprintf("name must be at most %d characters", maxNameLength)
	case strings.ContainsAny(name, "/?#"):
		return "name must not contain '/', '?' or '#'"
	}
	return ""
}
