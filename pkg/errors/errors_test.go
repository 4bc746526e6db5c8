package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", InvalidArgument("query is empty"), http.StatusBadRequest},
		{"wrapped invalid argument", fmt.Errorf("decoding: %w", ErrInvalidArgument), http.StatusBadRequest},
		{"timeout", fmt.Errorf("search: %w", ErrTimeout), http.StatusServiceUnavailable},
		{"not found", ErrDocumentNotFound, http.StatusNotFound},
		{"invalid state", InvalidState("finalized"), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestHelpersWrapSentinels(t *testing.T) {
	err := InvalidState("relevance already finalized")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "relevance already finalized")
}
