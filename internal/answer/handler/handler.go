// Package handler exposes the answer service over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/policydocs/harvester/internal/answer"
	apperrors "github.com/policydocs/harvester/pkg/errors"
	"github.com/policydocs/harvester/pkg/logger"
)

type Handler struct {
	service *answer.Service
	logger  *slog.Logger
}

func New(service *answer.Service) *Handler {
	return &Handler{
		service: service,
		logger:  slog.Default().With("component", "answer-handler"),
	}
}

// Query answers a policy question.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req answer.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.service.Query(r.Context(), req)
	if err != nil {
		h.handleError(w, r, "query", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Feedback records caller feedback on a previous answer.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req answer.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.service.Feedback(r.Context(), req); err != nil {
		h.handleError(w, r, "feedback", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Feedback recorded",
	})
}

// Refine returns an expanded answer for an earlier query.
func (h *Handler) Refine(w http.ResponseWriter, r *http.Request) {
	var req answer.RefineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.service.Refine(r.Context(), req)
	if err != nil {
		h.handleError(w, r, "refine", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	statusCode := apperrors.HTTPStatusCode(err)
	logger.FromContext(r.Context()).Error("answer request failed",
		"op", op,
		"status_code", statusCode,
		"error", err,
	)
	h.writeFailure(w, statusCode, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{
		"success":   false,
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
