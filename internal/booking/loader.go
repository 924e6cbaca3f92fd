package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/internal/schedule"
	"github.com/wolfman30/medbook-portal/internal/suggest"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// DoctorLister lists doctors for a specialty.
type DoctorLister interface {
	ListDoctors(ctx context.Context, specialtyID string) ([]portalapi.Doctor, error)
}

// Loader fills a State with the options matching its filters. Each load
// captures the state's generation and its result is dropped when the filters
// changed while the request was in flight.
type Loader struct {
	schedules suggest.ScheduleFetcher
	doctors   DoctorLister
	ranker    *suggest.Ranker
	logger    *logging.Logger
	now       func() time.Time
}

// NewLoader wires the loader to the backend and ranker.
func NewLoader(schedules suggest.ScheduleFetcher, doctors DoctorLister, ranker *suggest.Ranker, logger *logging.Logger, now func() time.Time) *Loader {
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Loader{schedules: schedules, doctors: doctors, ranker: ranker, logger: logger, now: now}
}

// LoadSlots fetches the pinned doctor's schedule and offers its available
// slots for the chosen date (every date when none is chosen).
func (l *Loader) LoadSlots(ctx context.Context, st *State, period schedule.Period) ([]schedule.TimeSlot, error) {
	gen := st.Generation()
	f := st.Filters()
	if f.DoctorID == "" {
		return nil, fmt.Errorf("load slots: doctor not selected")
	}
	blocks, err := l.schedules.GetDoctorSchedules(ctx, f.DoctorID)
	if err != nil {
		return nil, err
	}
	slots, err := schedule.AvailableSlots(schedule.FilterDate(blocks, f.Date), l.now())
	if err != nil {
		l.logger.Warn("skipped malformed schedule blocks", "doctor_id", f.DoctorID, "error", err)
	}
	slots = schedule.FilterPeriod(slots, period)
	if err := st.ApplySlots(gen, slots); err != nil {
		l.logger.Debug("discarding stale slot load", "doctor_id", f.DoctorID, "generation", gen)
		return nil, err
	}
	return slots, nil
}

// LoadSuggestions runs the auto-assign ranker over the specialty's doctors.
func (l *Loader) LoadSuggestions(ctx context.Context, st *State, q suggest.Query) ([]suggest.Suggestion, error) {
	gen := st.Generation()
	f := st.Filters()
	doctors, err := l.doctors.ListDoctors(ctx, f.SpecialtyID)
	if err != nil {
		return nil, err
	}
	if q.Date == "" {
		q.Date = f.Date
	}
	suggestions := l.ranker.Build(ctx, doctors, q)
	if err := st.ApplySuggestions(gen, suggestions); err != nil {
		l.logger.Debug("discarding stale suggestions", "specialty_id", f.SpecialtyID, "generation", gen)
		return nil, err
	}
	return suggestions, nil
}
