package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/internal/schedule"
	"github.com/wolfman30/medbook-portal/internal/suggest"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

var loaderNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func acceptedBlock(id, date, start, end string) schedule.Block {
	return schedule.Block{ID: id, Date: date, StartTime: start, EndTime: end, Status: schedule.StatusAccepted}
}

func TestState_FilterChangeClearsSelection(t *testing.T) {
	st := NewState()
	st.SetFilters(Filters{DoctorID: "d1", Date: "2026-10-20"})
	require.NoError(t, st.ApplySlots(st.Generation(), []schedule.TimeSlot{{ScheduleID: "s1", Date: "2026-10-20", Time: "09:00"}}))

	c, err := st.Select("s1@09:00")
	require.NoError(t, err)
	assert.Equal(t, "d1", c.DoctorID)
	_, ok := st.Choice()
	require.True(t, ok)

	assert.False(t, st.SetFilters(Filters{DoctorID: "d1", Date: "2026-10-20"}), "same filters are not a change")
	_, ok = st.Choice()
	assert.True(t, ok)

	assert.True(t, st.SetFilters(Filters{DoctorID: "d2", Date: "2026-10-20"}))
	_, ok = st.Choice()
	assert.False(t, ok)
	assert.Empty(t, st.Slots())
}

func TestState_SelectSuggestionByKey(t *testing.T) {
	st := NewState()
	sg := suggest.Suggestion{
		DoctorID: "d7",
		Block:    schedule.Block{ID: "s9"},
		Slot:     schedule.TimeSlot{ScheduleID: "s9", Date: "2026-10-21", Time: "14:00"},
		Key:      suggest.KeyFor("d7", "s9"),
	}
	require.NoError(t, st.ApplySuggestions(st.Generation(), []suggest.Suggestion{sg}))

	c, err := st.Select("d7-s9")
	require.NoError(t, err)
	assert.Equal(t, Choice{Key: "d7-s9", ScheduleID: "s9", DoctorID: "d7", Date: "2026-10-21", Time: "14:00"}, c)

	_, err = st.Select("d7-unknown")
	assert.ErrorIs(t, err, ErrUnknownChoice)
}

func TestState_StaleApplyRejected(t *testing.T) {
	st := NewState()
	gen := st.Generation()
	st.SetFilters(Filters{DoctorID: "d2"})

	assert.ErrorIs(t, st.ApplySlots(gen, []schedule.TimeSlot{{ScheduleID: "old"}}), ErrStaleGeneration)
	assert.Empty(t, st.Slots())
}

// gatedFetcher changes the filters mid-flight to simulate a user moving on
// before the old schedule response lands.
type gatedFetcher struct {
	st     *State
	blocks []schedule.Block
}

func (g *gatedFetcher) GetDoctorSchedules(_ context.Context, doctorID string) ([]schedule.Block, error) {
	if doctorID == "old" {
		g.st.SetFilters(Filters{DoctorID: "new"})
	}
	return g.blocks, nil
}

func TestLoader_DropsStaleSlotLoad(t *testing.T) {
	st := NewState()
	st.SetFilters(Filters{DoctorID: "old"})
	fetcher := &gatedFetcher{st: st, blocks: []schedule.Block{acceptedBlock("s1", "2026-10-20", "08:00", "09:00")}}
	l := NewLoader(fetcher, nil, nil, logging.New("error"), func() time.Time { return loaderNow })

	_, err := l.LoadSlots(context.Background(), st, schedule.PeriodAll)
	assert.ErrorIs(t, err, ErrStaleGeneration)
	assert.Empty(t, st.Slots())

	slots, err := l.LoadSlots(context.Background(), st, schedule.PeriodAll)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
	assert.Len(t, st.Slots(), 2)
}

func TestLoader_SlotsForDateAndPeriod(t *testing.T) {
	st := NewState()
	st.SetFilters(Filters{DoctorID: "d1", Date: "2026-10-20"})
	fetcher := &gatedFetcher{st: st, blocks: []schedule.Block{
		acceptedBlock("s1", "2026-10-20", "08:00", "09:00"),
		acceptedBlock("s2", "2026-10-20", "13:00", "14:00"),
		acceptedBlock("s3", "2026-10-21", "13:00", "14:00"),
	}}
	l := NewLoader(fetcher, nil, nil, logging.New("error"), func() time.Time { return loaderNow })

	slots, err := l.LoadSlots(context.Background(), st, schedule.PeriodAfternoon)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "s2", slots[0].ScheduleID)
}

func TestLoader_RequiresDoctor(t *testing.T) {
	l := NewLoader(&gatedFetcher{}, nil, nil, logging.New("error"), nil)
	_, err := l.LoadSlots(context.Background(), NewState(), schedule.PeriodAll)
	assert.Error(t, err)
}

type staticDoctors []portalapi.Doctor

func (s staticDoctors) ListDoctors(context.Context, string) ([]portalapi.Doctor, error) {
	return s, nil
}

type mapFetcher map[string][]schedule.Block

func (m mapFetcher) GetDoctorSchedules(_ context.Context, id string) ([]schedule.Block, error) {
	return m[id], nil
}

func TestLoader_Suggestions(t *testing.T) {
	st := NewState()
	st.SetFilters(Filters{SpecialtyID: "sp1", Date: "2026-10-20"})
	fetcher := mapFetcher{"d1": {acceptedBlock("s1", "2026-10-20", "08:00", "09:00"), acceptedBlock("s2", "2026-10-21", "08:00", "09:00")}}
	clock := func() time.Time { return loaderNow }
	ranker := suggest.NewRanker(fetcher, logging.New("error"), suggest.WithClock(clock))
	l := NewLoader(fetcher, staticDoctors{{ID: "d1", FullName: "BS An"}}, ranker, logging.New("error"), clock)

	got, err := l.LoadSuggestions(context.Background(), st, suggest.Query{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d1-s1", got[0].Key)
	assert.Len(t, st.Suggestions(), 1)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.Get("browser-a")
	assert.Same(t, a, r.Get("browser-a"))
	assert.NotSame(t, a, r.Get("browser-b"))

	assert.Equal(t, 0, r.Evict(time.Hour))
	assert.Equal(t, 2, r.Evict(-time.Second))

	r.Get("browser-c")
	r.Drop("browser-c")
	assert.NotSame(t, a, r.Get("browser-a"))
}
