// Package suggest builds the auto-assign booking suggestions: a bounded,
// doctor-diverse list of bookable slots across every doctor of a specialty.
package suggest

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/internal/schedule"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

const (
	DefaultPerDoctor = 3
	DefaultLimit     = 12
)

var tracer = otel.Tracer("medbook.internal.suggest")

// ScheduleFetcher loads one doctor's published schedule blocks.
type ScheduleFetcher interface {
	GetDoctorSchedules(ctx context.Context, doctorID string) ([]schedule.Block, error)
}

// FailureObserver is told about doctors skipped because their fetch failed.
type FailureObserver interface {
	ObserveSuggestionFailure(doctorID string)
	ObserveSuggestions(n int)
}

// Suggestion pairs a bookable slot with the doctor offering it.
type Suggestion struct {
	DoctorID   string            `json:"doctorId"`
	DoctorName string            `json:"doctorName"`
	Experience float64           `json:"experience"`
	Block      schedule.Block    `json:"schedule"`
	Slot       schedule.TimeSlot `json:"slot"`
	Key        string            `json:"key"`
}

// KeyFor builds the selection key of a doctor/schedule pair.
func KeyFor(doctorID, scheduleID string) string {
	return doctorID + "-" + scheduleID
}

// Query narrows the candidate slots.
type Query struct {
	Period    schedule.Period
	Date      string
	NameQuery string
}

// Ranker aggregates schedules across doctors.
type Ranker struct {
	fetcher   ScheduleFetcher
	logger    *logging.Logger
	observer  FailureObserver
	perDoctor int
	limit     int
	now       func() time.Time
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithCaps overrides the per-doctor and global caps; non-positive values keep the defaults.
func WithCaps(perDoctor, limit int) Option {
	return func(r *Ranker) {
		if perDoctor > 0 {
			r.perDoctor = perDoctor
		}
		if limit > 0 {
			r.limit = limit
		}
	}
}

// WithClock sets the wall clock used for "today" decisions.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// WithObserver records skipped doctors and result sizes.
func WithObserver(o FailureObserver) Option {
	return func(r *Ranker) {
		r.observer = o
	}
}

// NewRanker creates a suggestion ranker.
func NewRanker(fetcher ScheduleFetcher, logger *logging.Logger, opts ...Option) *Ranker {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Ranker{
		fetcher:   fetcher,
		logger:    logger,
		perDoctor: DefaultPerDoctor,
		limit:     DefaultLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build walks doctors from most to least experienced, fetching schedules one
// doctor at a time, and stops once the global cap is met. A doctor whose
// fetch fails is skipped. Each schedule block contributes its earliest
// eligible slot so selection keys stay unique.
func (r *Ranker) Build(ctx context.Context, doctors []portalapi.Doctor, q Query) []Suggestion {
	ctx, span := tracer.Start(ctx, "suggest.build")
	defer span.End()

	ranked := RankDoctors(FilterDoctors(doctors, q.NameQuery))
	now := r.now()
	out := make([]Suggestion, 0, r.limit)
	queried, failed := 0, 0

	for _, d := range ranked {
		if len(out) >= r.limit {
			break
		}
		if ctx.Err() != nil {
			r.logger.Debug("suggestion build cancelled", "collected", len(out))
			break
		}
		queried++
		blocks, err := r.fetcher.GetDoctorSchedules(ctx, d.ID)
		if err != nil {
			failed++
			r.logger.Warn("skipping doctor in suggestions", "doctor_id", d.ID, "error", err)
			if r.observer != nil {
				r.observer.ObserveSuggestionFailure(d.ID)
			}
			continue
		}
		for _, s := range r.doctorSuggestions(d, blocks, q, now) {
			if len(out) >= r.limit {
				break
			}
			out = append(out, s)
		}
	}

	span.SetAttributes(
		attribute.Int("medbook.doctors_queried", queried),
		attribute.Int("medbook.doctors_failed", failed),
		attribute.Int("medbook.suggestions", len(out)),
	)
	if r.observer != nil {
		r.observer.ObserveSuggestions(len(out))
	}
	return out
}

func (r *Ranker) doctorSuggestions(d portalapi.Doctor, blocks []schedule.Block, q Query, now time.Time) []Suggestion {
	blocks = schedule.FilterDate(schedule.FilterAvailable(blocks, now), q.Date)

	var candidates []Suggestion
	for _, b := range blocks {
		slots, err := schedule.ExpandSlots(b, now)
		if err != nil {
			r.logger.Debug("ignoring malformed schedule block", "doctor_id", d.ID, "schedule_id", b.ID, "error", err)
			continue
		}
		slots = schedule.FilterPeriod(slots, q.Period)
		if len(slots) == 0 {
			continue
		}
		candidates = append(candidates, Suggestion{
			DoctorID:   d.ID,
			DoctorName: d.FullName,
			Experience: float64(d.Experience),
			Block:      b,
			Slot:       slots[0],
			Key:        KeyFor(d.ID, b.ID),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Slot.SortKey() < candidates[j].Slot.SortKey()
	})
	if len(candidates) > r.perDoctor {
		candidates = candidates[:r.perDoctor]
	}
	return candidates
}

// FilterDoctors keeps doctors whose name contains query, case-insensitively.
func FilterDoctors(doctors []portalapi.Doctor, query string) []portalapi.Doctor {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return doctors
	}
	out := make([]portalapi.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if strings.Contains(strings.ToLower(d.FullName), query) {
			out = append(out, d)
		}
	}
	return out
}

// RankDoctors returns a copy ordered by descending experience; ties keep
// their original order.
func RankDoctors(doctors []portalapi.Doctor) []portalapi.Doctor {
	ranked := append([]portalapi.Doctor(nil), doctors...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Experience > ranked[j].Experience
	})
	return ranked
}

// Find looks a suggestion up by its selection key.
func Find(suggestions []Suggestion, key string) (Suggestion, bool) {
	for _, s := range suggestions {
		if s.Key == key {
			return s, true
		}
	}
	return Suggestion{}, false
}
