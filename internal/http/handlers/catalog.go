package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/wolfman30/medbook-portal/internal/notify"
	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/internal/suggest"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// CatalogAPI is the read-only part of the backend the catalog pages use.
type CatalogAPI interface {
	ListActiveSpecialties(ctx context.Context) ([]portalapi.Specialty, error)
	ListDoctors(ctx context.Context, specialtyID string) ([]portalapi.Doctor, error)
}

// CatalogHandler serves specialties and doctors.
type CatalogHandler struct {
	api    CatalogAPI
	logger *logging.Logger
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(api CatalogAPI, logger *logging.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogHandler{api: api, logger: logger}
}

// Specialties handles GET /api/specialties.
func (h *CatalogHandler) Specialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.api.ListActiveSpecialties(r.Context())
	if err != nil {
		h.logger.Error("failed to list specialties", "error", err)
		writeNotice(w, notify.ForError(notify.OpLoadSpecialties, err))
		return
	}
	if specialties == nil {
		specialties = []portalapi.Specialty{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"specialties": specialties})
}

// Doctors handles GET /api/doctors?specialty=&q=. Results are filtered by
// name and ordered by experience, most experienced first.
func (h *CatalogHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	specialtyID := strings.TrimSpace(q.Get("specialty"))
	doctors, err := h.api.ListDoctors(r.Context(), specialtyID)
	if err != nil {
		h.logger.Error("failed to list doctors", "specialty_id", specialtyID, "error", err)
		writeNotice(w, notify.ForError(notify.OpLoadDoctors, err))
		return
	}
	doctors = suggest.RankDoctors(suggest.FilterDoctors(doctors, q.Get("q")))
	if doctors == nil {
		doctors = []portalapi.Doctor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}
