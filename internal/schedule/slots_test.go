package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hcm = time.FixedZone("ICT", 7*60*60)

func at(date string, hh, mm int) time.Time {
	d, err := time.ParseInLocation(DateLayout, date, hcm)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func times(slots []TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.DisplayTime)
	}
	return out
}

func TestExpandSlots_DropsTrailingRemainder(t *testing.T) {
	block := Block{ID: "s1", Date: "2026-10-20", StartTime: "09:00", EndTime: "10:15", Status: StatusAccepted}

	slots, err := ExpandSlots(block, at("2026-10-17", 8, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00 - 09:30", "09:30 - 10:00"}, times(slots))
	assert.Equal(t, "s1", slots[0].ScheduleID)
	assert.Equal(t, "09:30", slots[1].Time)
}

func TestExpandSlots_CountMatchesWholeSteps(t *testing.T) {
	now := at("2026-10-17", 8, 0)
	tests := []struct {
		start, end string
		want       int
	}{
		{"08:00", "12:00", 8},
		{"08:00", "08:29", 0},
		{"08:00", "08:30", 1},
		{"13:30", "17:10", 7},
		{"22:00", "24:00", 4},
	}
	for _, tt := range tests {
		t.Run(tt.start+"-"+tt.end, func(t *testing.T) {
			slots, err := ExpandSlots(Block{ID: "b", Date: "2026-10-18", StartTime: tt.start, EndTime: tt.end}, now)
			require.NoError(t, err)
			assert.Len(t, slots, tt.want)
		})
	}
}

func TestExpandSlots_TodayDropsPastSteps(t *testing.T) {
	block := Block{ID: "s2", Date: "2026-10-17", StartTime: "13:00", EndTime: "15:00"}

	slots, err := ExpandSlots(block, at("2026-10-17", 14, 5))
	require.NoError(t, err)

	assert.Equal(t, []string{"14:30 - 15:00"}, times(slots))
}

func TestExpandSlots_TodayKeepsSlotStartingThisMinute(t *testing.T) {
	block := Block{ID: "s3", Date: "2026-10-17", StartTime: "14:00", EndTime: "15:00"}

	slots, err := ExpandSlots(block, at("2026-10-17", 14, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"14:00 - 14:30", "14:30 - 15:00"}, times(slots))
}

func TestExpandSlots_Malformed(t *testing.T) {
	now := at("2026-10-17", 8, 0)
	for _, b := range []Block{
		{ID: "x", StartTime: "9h", EndTime: "10:00"},
		{ID: "x", StartTime: "09:00", EndTime: "25:00"},
		{ID: "x", StartTime: "10:00", EndTime: "09:00"},
		{ID: "x", StartTime: "10:00", EndTime: "10:00"},
	} {
		_, err := ExpandSlots(b, now)
		assert.Error(t, err, "%s-%s", b.StartTime, b.EndTime)
	}
}

func TestFilterAvailable(t *testing.T) {
	now := at("2026-10-17", 10, 0)
	blocks := []Block{
		{ID: "ok-future", Date: "2026-10-19", Status: StatusAccepted},
		{ID: "pending", Date: "2026-10-19", Status: StatusPending},
		{ID: "booked", Date: "2026-10-19", Status: StatusAccepted, IsBooked: true},
		{ID: "past", Date: "2026-10-16", Status: StatusAccepted},
		{ID: "nodate", Status: StatusAccepted},
		{ID: "ok-today", Date: "2026-10-17", Status: StatusAccepted},
		{ID: "busy", Date: "2026-10-20", Status: StatusBusy},
	}

	got := FilterAvailable(blocks, now)

	ids := make([]string, 0, len(got))
	for _, b := range got {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"ok-future", "ok-today"}, ids)
	assert.Equal(t, got, FilterAvailable(got, now), "filter must be idempotent")
}

func TestAvailableSlots_SortsAndReportsBadBlocks(t *testing.T) {
	now := at("2026-10-17", 10, 0)
	blocks := []Block{
		{ID: "late", Date: "2026-10-19", StartTime: "14:00", EndTime: "15:00", Status: StatusAccepted},
		{ID: "early", Date: "2026-10-18", StartTime: "08:00", EndTime: "08:30", Status: StatusAccepted},
		{ID: "bad", Date: "2026-10-18", StartTime: "oops", EndTime: "08:30", Status: StatusAccepted},
	}

	slots, err := AvailableSlots(blocks, now)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidClock)
	require.Len(t, slots, 3)
	assert.Equal(t, "early", slots[0].ScheduleID)
	assert.Equal(t, "14:30", slots[2].Time)
}

func TestFilterDate(t *testing.T) {
	blocks := []Block{{ID: "a", Date: "2026-10-18"}, {ID: "b", Date: "2026-10-19"}}
	assert.Len(t, FilterDate(blocks, ""), 2)
	got := FilterDate(blocks, "2026-10-19")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestBlockUnmarshalAcceptsIDVariants(t *testing.T) {
	var blocks []Block
	raw := `[{"_id":"m1","date":"2026-10-18T00:00:00.000Z","startTime":"08:00","endTime":"09:00","status":"accepted","isBooked":false},
	         {"id":"m2","date":"2026-10-19","startTime":"08:00","endTime":"09:00","status":"busy"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &blocks))

	assert.Equal(t, "m1", blocks[0].ID)
	assert.Equal(t, "2026-10-18", blocks[0].Date)
	assert.True(t, blocks[0].Bookable())
	assert.Equal(t, "m2", blocks[1].ID)
	assert.False(t, blocks[1].Bookable())
}
