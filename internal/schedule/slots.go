package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ExpandSlots carves block into consecutive SlotMinutes slots. A trailing
// remainder shorter than one slot produces nothing. When the block falls on
// now's date, slots starting before the current minute are dropped.
func ExpandSlots(block Block, now time.Time) ([]TimeSlot, error) {
	start, err := ParseClock(block.StartTime)
	if err != nil {
		return nil, fmt.Errorf("block %s start: %w", block.ID, err)
	}
	end, err := ParseClock(block.EndTime)
	if err != nil {
		return nil, fmt.Errorf("block %s end: %w", block.ID, err)
	}
	if start >= end {
		return nil, fmt.Errorf("block %s: start %s not before end %s", block.ID, start, end)
	}

	isToday := block.Date == Today(now)
	current := ClockOf(now)

	slots := make([]TimeSlot, 0, int(end-start)/SlotMinutes)
	for step := start; step+SlotMinutes <= end; step += SlotMinutes {
		if isToday && step < current {
			continue
		}
		slots = append(slots, TimeSlot{
			ScheduleID:  block.ID,
			Date:        block.Date,
			Time:        step.String(),
			DisplayTime: step.String() + " - " + (step + SlotMinutes).String(),
		})
	}
	return slots, nil
}

// FilterAvailable keeps accepted, unbooked, dated blocks on or after today.
// Order is preserved.
func FilterAvailable(blocks []Block, now time.Time) []Block {
	today := Today(now)
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if !b.Bookable() || b.Date == "" || b.Date < today {
			continue
		}
		out = append(out, b)
	}
	return out
}

// FilterDate keeps blocks on date; an empty date keeps everything.
func FilterDate(blocks []Block, date string) []Block {
	if date == "" {
		return blocks
	}
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Date == date {
			out = append(out, b)
		}
	}
	return out
}

// AvailableSlots runs the availability filter and slot expansion over a
// doctor's full schedule and returns the slots in chronological order.
// Malformed blocks are skipped; their errors are joined into the returned
// error alongside the usable slots.
func AvailableSlots(blocks []Block, now time.Time) ([]TimeSlot, error) {
	var (
		slots []TimeSlot
		errs  []error
	)
	for _, b := range FilterAvailable(blocks, now) {
		expanded, err := ExpandSlots(b, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		slots = append(slots, expanded...)
	}
	SortSlots(slots)
	return slots, errors.Join(errs...)
}

// SortSlots orders slots by date then time.
func SortSlots(slots []TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].SortKey() < slots[j].SortKey()
	})
}
