package booking

import (
	"sync"
	"time"

	"github.com/wolfman30/medbook-portal/internal/schedule"
	"github.com/wolfman30/medbook-portal/internal/suggest"
)

// Filters are the form fields that determine which slots are on offer.
type Filters struct {
	SpecialtyID string `json:"specialtyId"`
	DoctorID    string `json:"doctorId"`
	Date        string `json:"date"`
}

// State is one browser's booking form state. Every filter change bumps the
// generation, drops loaded options and clears the selection.
type State struct {
	mu          sync.Mutex
	filters     Filters
	generation  uint64
	slots       []schedule.TimeSlot
	suggestions []suggest.Suggestion
	choice      *Choice
	touched     time.Time
}

// NewState returns an empty form state at generation zero.
func NewState() *State {
	return &State{touched: time.Now()}
}

// SetFilters applies f and reports whether anything changed.
func (s *State) SetFilters(f Filters) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	if f == s.filters {
		return false
	}
	s.filters = f
	s.generation++
	s.slots = nil
	s.suggestions = nil
	s.choice = nil
	return true
}

// Filters returns the current filters.
func (s *State) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Generation is the token a load captures before going to the network.
func (s *State) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// ApplySlots stores slots loaded under gen, unless the filters moved on.
func (s *State) ApplySlots(gen uint64, slots []schedule.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrStaleGeneration
	}
	s.slots = slots
	return nil
}

// ApplySuggestions stores suggestions loaded under gen, unless the filters moved on.
func (s *State) ApplySuggestions(gen uint64, suggestions []suggest.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrStaleGeneration
	}
	s.suggestions = suggestions
	return nil
}

// Slots returns the slots currently on offer.
func (s *State) Slots() []schedule.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schedule.TimeSlot(nil), s.slots...)
}

// Suggestions returns the suggestions currently on offer.
func (s *State) Suggestions() []suggest.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]suggest.Suggestion(nil), s.suggestions...)
}

// Select picks an offered slot (by TimeSlot key) or suggestion (by
// suggestion key). A second call replaces the first.
func (s *State) Select(key string) (Choice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	for _, sg := range s.suggestions {
		if sg.Key == key {
			c := Choice{Key: key, ScheduleID: sg.Block.ID, DoctorID: sg.DoctorID, Date: sg.Slot.Date, Time: sg.Slot.Time}
			s.choice = &c
			return c, nil
		}
	}
	for _, sl := range s.slots {
		if sl.Key() == key {
			c := Choice{Key: key, ScheduleID: sl.ScheduleID, DoctorID: s.filters.DoctorID, Date: sl.Date, Time: sl.Time}
			s.choice = &c
			return c, nil
		}
	}
	return Choice{}, ErrUnknownChoice
}

// Choice returns the current selection, if any.
func (s *State) Choice() (*Choice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.choice == nil {
		return nil, false
	}
	c := *s.choice
	return &c, true
}

// ClearChoice drops the selection, e.g. after a successful submission.
func (s *State) ClearChoice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.choice = nil
}

func (s *State) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Registry keeps one State per browser id.
type Registry struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[string]*State)}
}

// Get returns the browser's state, creating it on first use.
func (r *Registry) Get(browserID string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[browserID]
	if !ok {
		st = NewState()
		r.states[browserID] = st
	}
	return st
}

// Drop forgets a browser's state.
func (r *Registry) Drop(browserID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, browserID)
}

// Evict removes states untouched for longer than idle and returns how many went.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, st := range r.states {
		if st.idleSince().Before(cutoff) {
			delete(r.states, id)
			n++
		}
	}
	return n
}
