// Package schedule turns doctor-published schedule blocks into bookable
// 30-minute time slots.
package schedule

import (
	"encoding/json"
	"time"
)

// DateLayout is the zero-padded ISO date the backend uses for block dates.
const DateLayout = "2006-01-02"

// SlotMinutes is the fixed length of a bookable slot.
const SlotMinutes = 30

// Status is the doctor-side state of a schedule block.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusBusy     Status = "busy"
)

// Block is a doctor-published availability window on one date.
type Block struct {
	ID        string `json:"_id"`
	DoctorID  string `json:"doctorId,omitempty"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    Status `json:"status"`
	IsBooked  bool   `json:"isBooked"`
}

// UnmarshalJSON accepts either "_id" or "id" and trims datetime dates down to
// their calendar part.
func (b *Block) UnmarshalJSON(data []byte) error {
	type alias Block
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Block(raw.alias)
	if b.ID == "" {
		b.ID = raw.AltID
	}
	if len(b.Date) > len(DateLayout) {
		b.Date = b.Date[:len(DateLayout)]
	}
	return nil
}

// Bookable reports whether patients may book into the block at all.
func (b Block) Bookable() bool {
	return b.Status == StatusAccepted && !b.IsBooked
}

// TimeSlot is a derived 30-minute unit carved out of a Block.
type TimeSlot struct {
	ScheduleID  string `json:"scheduleId"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	DisplayTime string `json:"displayTime"`
}

// Key identifies a slot within one doctor's schedule.
func (s TimeSlot) Key() string {
	return s.ScheduleID + "@" + s.Time
}

// SortKey orders slots chronologically.
func (s TimeSlot) SortKey() string {
	return s.Date + s.Time
}

// Today returns the calendar date of now in its own location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// RefID lets a Block sit behind a reference-or-expanded field.
func (b Block) RefID() string { return b.ID }
