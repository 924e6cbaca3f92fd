package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/medbook-portal/internal/booking"
	"github.com/wolfman30/medbook-portal/internal/notify"
	"github.com/wolfman30/medbook-portal/internal/schedule"
	"github.com/wolfman30/medbook-portal/internal/session"
	"github.com/wolfman30/medbook-portal/internal/suggest"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// BookingHandler drives the patient booking form: slot and suggestion
// loading, selection and submission. Form state is kept per browser.
type BookingHandler struct {
	loader    *booking.Loader
	submitter *booking.Submitter
	states    *booking.Registry
	logger    *logging.Logger
}

// NewBookingHandler creates a booking handler.
func NewBookingHandler(loader *booking.Loader, submitter *booking.Submitter, states *booking.Registry, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{loader: loader, submitter: submitter, states: states, logger: logger}
}

type slotsResponse struct {
	Generation uint64              `json:"generation"`
	Slots      []schedule.TimeSlot `json:"slots"`
}

type suggestionsResponse struct {
	Generation  uint64               `json:"generation"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

func stale(w http.ResponseWriter) {
	writeNotice(w, notify.Notice{
		Level:   notify.LevelWarning,
		Code:    "stale",
		Message: "Bộ lọc đã thay đổi, đang tải lại",
		Status:  http.StatusConflict,
	})
}

func (h *BookingHandler) state(w http.ResponseWriter, r *http.Request) (*booking.State, bool) {
	id, err := browserID(r)
	if err != nil {
		badRequest(w, "Thiếu định danh trình duyệt")
		return nil, false
	}
	return h.states.Get(id), true
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (schedule.Period, bool) {
	period, err := schedule.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		badRequest(w, "Buổi khám không hợp lệ")
		return "", false
	}
	return period, true
}

// Slots handles GET /api/doctors/{doctorID}/slots?date=&period=&specialty=.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	st.SetFilters(booking.Filters{
		SpecialtyID: strings.TrimSpace(q.Get("specialty")),
		DoctorID:    strings.TrimSpace(chi.URLParam(r, "doctorID")),
		Date:        strings.TrimSpace(q.Get("date")),
	})
	gen := st.Generation()
	slots, err := h.loader.LoadSlots(r.Context(), st, period)
	if errors.Is(err, booking.ErrStaleGeneration) {
		stale(w)
		return
	}
	if err != nil {
		h.logger.Error("failed to load slots", "doctor_id", chi.URLParam(r, "doctorID"), "error", err)
		writeNotice(w, notify.ForError(notify.OpLoadSlots, err))
		return
	}
	if slots == nil {
		slots = []schedule.TimeSlot{}
	}
	writeJSON(w, http.StatusOK, slotsResponse{Generation: gen, Slots: slots})
}

// Suggestions handles GET /api/suggestions?specialty=&q=&date=&period=.
func (h *BookingHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	specialtyID := strings.TrimSpace(q.Get("specialty"))
	if specialtyID == "" {
		writeNotice(w, notify.ForError(notify.OpLoadSuggestions, booking.NewValidationError(booking.CodeSpecialtyRequired)))
		return
	}
	st.SetFilters(booking.Filters{SpecialtyID: specialtyID, Date: strings.TrimSpace(q.Get("date"))})
	gen := st.Generation()
	suggestions, err := h.loader.LoadSuggestions(r.Context(), st, suggest.Query{
		Period:    period,
		NameQuery: q.Get("q"),
	})
	if errors.Is(err, booking.ErrStaleGeneration) {
		stale(w)
		return
	}
	if err != nil {
		h.logger.Error("failed to load suggestions", "specialty_id", specialtyID, "error", err)
		writeNotice(w, notify.ForError(notify.OpLoadSuggestions, err))
		return
	}
	if suggestions == nil {
		suggestions = []suggest.Suggestion{}
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Generation: gen, Suggestions: suggestions})
}

type createAppointmentRequest struct {
	Form      booking.Form `json:"form"`
	ChoiceKey string       `json:"choiceKey"`
}

type createAppointmentResponse struct {
	*booking.Result
	Notice notify.Notice `json:"notice"`
}

// Create handles POST /api/appointments. The chosen slot is resolved from
// the options this browser last loaded; the patient comes from the session.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}
	var req createAppointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "Dữ liệu đặt lịch không hợp lệ")
		return
	}

	sub := booking.Submission{Form: req.Form}
	if sess, ok := session.FromContext(r.Context()); ok {
		sub.PatientID = sess.User.ID
	}
	if key := strings.TrimSpace(req.ChoiceKey); key != "" {
		if choice, err := st.Select(key); err == nil {
			sub.Choice = &choice
		} else {
			h.logger.Debug("unknown booking choice", "key", key)
		}
	} else if choice, ok := st.Choice(); ok {
		sub.Choice = choice
	}

	result, err := h.submitter.Submit(r.Context(), sub)
	if err != nil {
		writeNotice(w, notify.ForError(notify.OpBook, err))
		return
	}
	st.ClearChoice()
	writeJSON(w, http.StatusCreated, createAppointmentResponse{Result: result, Notice: notify.Success(notify.OpBook)})
}
