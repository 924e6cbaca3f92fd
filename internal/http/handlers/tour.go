package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/medbook-portal/internal/notify"
	"github.com/wolfman30/medbook-portal/internal/tour"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// TourHandler starts and stops the guided tour for the calling browser.
type TourHandler struct {
	logger *logging.Logger
}

// NewTourHandler creates a tour handler.
func NewTourHandler(logger *logging.Logger) *TourHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TourHandler{logger: logger}
}

func (h *TourHandler) controller(w http.ResponseWriter, r *http.Request) (*tour.Controller, bool) {
	c, ok := tour.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "tour controller missing"})
	}
	return c, ok
}

// Start handles POST /api/tour/{name}/start.
func (h *TourHandler) Start(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if err := c.Start(name); err != nil {
		if errors.Is(err, tour.ErrNameRequired) {
			badRequest(w, "Thiếu tên hướng dẫn")
			return
		}
		writeNotice(w, notify.ForError(notify.OpTour, err))
		return
	}
	started := c.Status().StartedAt
	c.OnDestroy(func() {
		h.logger.Info("tour ended", "tour", name, "started_at", started)
	})
	h.logger.Info("tour started", "tour", name)
	writeJSON(w, http.StatusOK, c.Status())
}

// Destroy handles POST /api/tour/destroy.
func (h *TourHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	c.Destroy()
	writeJSON(w, http.StatusOK, c.Status())
}

// Status handles GET /api/tour.
func (h *TourHandler) Status(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Status())
}
