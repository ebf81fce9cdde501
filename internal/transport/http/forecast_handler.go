// Package http exposes the forecasting service over a chi router with
// RFC 7807 problem responses for all error paths.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "pricecast/internal/errors"
	"pricecast/internal/forecast"
	"pricecast/internal/pipeline"
	"pricecast/internal/services"
)

// ForecastHandler handles forecast run HTTP requests.
type ForecastHandler struct {
	service      *services.ForecastService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewForecastHandler creates a new forecast handler.
func NewForecastHandler(service *services.ForecastService, logger *slog.Logger) *ForecastHandler {
	return &ForecastHandler{
		service:      service,
		logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// RegisterRoutes registers the forecast routes.
func (h *ForecastHandler) RegisterRoutes(r chi.Router) {
	r.Route("/forecast", func(r chi.Router) {
		r.Post("/", h.CreateRun)
	})
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", h.ListRuns)
		r.Get("/{id}", h.GetRun)
	})
}

// runResponse pairs the forecast report with its run state.
type runResponse struct {
	Run    pipeline.RunSnapshot `json:"run"`
	Report *forecast.Report     `json:"report"`
}

// CreateRun executes a forecast run and returns the report.
func (h *ForecastHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req pipeline.Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.WarnContext(ctx, "malformed forecast request",
			slog.String("error", err.Error()))

		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"INVALID_REQUEST_BODY",
			"Request body must be valid JSON",
		))
		return
	}

	h.logger.InfoContext(ctx, "forecast run requested",
		slog.String("symbol", req.Symbol),
		slog.Int("horizon", req.Horizon))

	report, err := h.service.Run(ctx, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, report)
}

// GetRun returns the snapshot and report of a retained run.
func (h *ForecastHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	snapshot, report, err := h.service.GetRun(id)
	if err != nil {
		h.logger.WarnContext(ctx, "run lookup failed",
			slog.String("run_id", id),
			slog.String("error", err.Error()))

		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, runResponse{Run: snapshot, Report: report})
}

// ListRuns returns snapshots of all retained runs.
func (h *ForecastHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.ListRuns())
}
