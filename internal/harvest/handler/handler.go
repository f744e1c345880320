// Package handler exposes the harvest pipeline and document catalog over
// HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/policydocs/harvester/internal/harvest"
	apperrors "github.com/policydocs/harvester/pkg/errors"
	"github.com/policydocs/harvester/pkg/logger"
)

// Runner executes one harvest batch. Implemented by pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, sourceURL string) (*harvest.Report, error)
}

// Lister reads catalog rows. It may be nil when no database is configured.
type Lister interface {
	ListDocuments(ctx context.Context, section string, limit int) ([]harvest.ProcessedDocument, error)
}

// HarvestRequest is the JSON body accepted by the harvest endpoint.
type HarvestRequest struct {
	URL string `json:"url"`
}

type Handler struct {
	runner Runner
	lister Lister
	logger *slog.Logger
}

func New(runner Runner, lister Lister) *Handler {
	return &Handler{
		runner: runner,
		lister: lister,
		logger: slog.Default().With("component", "harvest-handler"),
	}
}

// Harvest triggers one batch run. Completed runs always return 200, even
// with per-item failures; only a bad request or an unreachable source page
// produce a non-200 status.
func (h *Handler) Harvest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in harvest handler", "panic", rec)
			h.writeFailure(w, http.StatusInternalServerError, "internal error")
		}
	}()

	var req HarvestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateSourceURL(req.URL); err != nil {
		h.writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.runner.Run(ctx, req.URL)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("harvest run failed",
			"source_url", req.URL,
			"status_code", statusCode,
			"error", err,
		)
		h.writeFailure(w, statusCode, err.Error())
		return
	}

	log.Info("harvest run completed",
		"source_url", req.URL,
		"total", report.Summary.Total,
		"successful", report.Summary.Successful,
		"failed", report.Summary.Failed,
	)
	h.writeJSON(w, http.StatusOK, report)
}

// ListDocuments serves catalog rows, optionally filtered by ?section=.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		h.writeFailure(w, http.StatusServiceUnavailable, "document catalog not configured")
		return
	}
	section := r.URL.Query().Get("section")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	docs, err := h.lister.ListDocuments(r.Context(), section, limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("listing documents failed", "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "listing documents failed")
		return
	}
	if docs == nil {
		docs = []harvest.ProcessedDocument{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"count":     len(docs),
		"documents": docs,
	})
}

// validateSourceURL requires an absolute http(s) URL.
func validateSourceURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid url %q", raw)
	}
	return nil
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
