package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/logger"
)

const maxBodyBytes = 2 << 20

// PagePublisher stores and removes pages.
type PagePublisher interface {
	Store(ctx context.Context, req *ingestion.PageRequest) (*ingestion.PageResponse, error)
	Remove(ctx context.Context, name string) (*ingestion.PageResponse, error)
}

type Handler struct {
	publisher PagePublisher
	logger    *slog.Logger
}

func New(pub PagePublisher) *Handler {
	return &Handler{
		publisher: pub,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

// StorePage serves POST /api/v1/pages.
func (h *Handler) StorePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	var req ingestion.PageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidatePageRequest(&req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	resp, err := h.publisher.Store(ctx, &req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("page ingestion failed",
			"name", req.Name,
			"error", err,
			"status_code", statusCode,
		)
		h.writeError(w, statusCode, "page ingestion failed")
		return
	}
	log.Info("page ingested",
		"page_id", resp.PageID,
		"name", resp.Name,
		"status", resp.Status,
	)
	h.writeJSON(w, http.StatusAccepted, resp)
}

// RemovePage serves DELETE /api/v1/pages/{name}.
func (h *Handler) RemovePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	name := r.PathValue("name")
	if msg := validator.ValidateName(name); msg != "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": map[string]string{"name": msg},
		})
		return
	}

	resp, err := h.publisher.Remove(ctx, name)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		if statusCode == http.StatusNotFound {
			h.writeError(w, statusCode, "page not found")
			return
		}
		log.Error("page removal failed",
			"name", name,
			"error", err,
			"status_code", statusCode,
		)
		h.writeError(w, statusCode, "page removal failed")
		return
	}
	log.Info("page removed", "page_id", resp.PageID, "name", name)
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
