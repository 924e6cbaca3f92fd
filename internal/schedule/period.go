package schedule

import (
	"fmt"
	"strings"
)

// Period restricts slots by time of day.
type Period string

const (
	PeriodAll       Period = "ALL"
	PeriodMorning   Period = "MORNING"
	PeriodAfternoon Period = "AFTERNOON"
)

const noon = "12:00"

// ParsePeriod accepts the three period names case-insensitively; empty means ALL.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToUpper(strings.TrimSpace(s))); p {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodMorning, PeriodAfternoon:
		return p, nil
	default:
		return "", fmt.Errorf("schedule: unknown period %q", s)
	}
}

// Allows compares the HH:mm slot start against noon.
func (p Period) Allows(slotTime string) bool {
	switch p {
	case PeriodMorning:
		return slotTime < noon
	case PeriodAfternoon:
		return slotTime >= noon
	default:
		return true
	}
}

// FilterPeriod keeps the slots p allows.
func FilterPeriod(slots []TimeSlot, p Period) []TimeSlot {
	if p == PeriodAll || p == "" {
		return slots
	}
	out := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		if p.Allows(s.Time) {
			out = append(out, s)
		}
	}
	return out
}
