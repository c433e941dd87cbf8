package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	kitchenapp "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/application"
	shelfapp "github.com/dmehra2102/Kitchen-Unit/internal/shelf/application"
)

type StatusSource interface {
	Status() kitchenapp.Status
}

type ShelfInventory interface {
	Inventory(ctx context.Context) (shelfapp.Inventory, error)
}

type Handler struct {
	log     *slog.Logger
	status  StatusSource
	shelves ShelfInventory
	metrics http.Handler
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, status StatusSource, shelves ShelfInventory, metrics http.Handler) *Handler {
	return &Handler{
		log:     log.With("component", "http"),
		status:  status,
		shelves: shelves,
		metrics: metrics,
		tracer:  otel.Tracer("kitchen-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.health)
	r.Get("/report", h.report)
	r.Get("/shelves", h.inventory)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.status.Status().Closed {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "closed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "serving"})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status.Status())
}

func (h *Handler) inventory(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ShelfInventory")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	inv, err := h.shelves.Inventory(ctx)
	if err != nil {
		h.log.Warn("shelf inventory unavailable", "err", err)
		span.RecordError(err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "shelf manager unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
