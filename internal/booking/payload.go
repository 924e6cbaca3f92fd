package booking

import (
	"math"
	"strings"
	"time"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
)

// BuildNote joins the service label with the patient's free-text note.
func BuildNote(serviceLabel, note string) string {
	out := "Dịch vụ: " + strings.TrimSpace(serviceLabel)
	if note = strings.TrimSpace(note); note != "" {
		out += " - Ghi chú: " + note
	}
	return out
}

// BuildRequest turns a validated submission into the backend payload. In
// auto-assign mode the doctor comes from the chosen suggestion.
func BuildRequest(sub Submission) portalapi.AppointmentRequest {
	doctorID := sub.Form.DoctorID
	if sub.Choice.DoctorID != "" {
		doctorID = sub.Choice.DoctorID
	}
	date := sub.Choice.Date
	if date == "" {
		date = sub.Form.Date
	}
	return portalapi.AppointmentRequest{
		PatientID:  sub.PatientID,
		FullName:   strings.TrimSpace(sub.Form.FullName),
		Phone:      strings.TrimSpace(sub.Form.Phone),
		Email:      strings.TrimSpace(sub.Form.Email),
		DoctorID:   doctorID,
		ScheduleID: sub.Choice.ScheduleID,
		Specialty:  sub.Form.SpecialtyID,
		Date:       date,
		Time:       sub.Choice.Time,
		Note:       BuildNote(sub.Form.Service.Label, sub.Form.Note),
	}
}

// HoldMinutes is the display-only number of minutes left on a payment hold,
// rounded up and never below one.
func HoldMinutes(expiresAt, now time.Time) int {
	ms := float64(expiresAt.Sub(now).Milliseconds())
	minutes := int(math.Ceil(ms / 60000))
	if minutes < 1 {
		return 1
	}
	return minutes
}
