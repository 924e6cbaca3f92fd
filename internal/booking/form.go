package booking

import "strings"

// ServiceOption is the service the patient picked on the form.
type ServiceOption struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	RequiresSpecialty bool   `json:"requiresSpecialty"`
}

// Form is the patient-entered part of a booking request.
type Form struct {
	FullName    string        `json:"fullName"`
	Phone       string        `json:"phone"`
	Email       string        `json:"email,omitempty"`
	Date        string        `json:"date"`
	SpecialtyID string        `json:"specialtyId,omitempty"`
	DoctorID    string        `json:"doctorId,omitempty"`
	AutoAssign  bool          `json:"autoAssign"`
	Service     ServiceOption `json:"service"`
	Note        string        `json:"note,omitempty"`
}

// Choice is the concrete slot or suggestion selected for submission.
type Choice struct {
	Key        string `json:"key"`
	ScheduleID string `json:"scheduleId"`
	DoctorID   string `json:"doctorId,omitempty"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// Submission bundles everything the guard inspects.
type Submission struct {
	PatientID string
	Form      Form
	Choice    *Choice
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Validate applies the booking rules in order; the first failing rule wins.
func Validate(sub Submission) error {
	if blank(sub.PatientID) {
		return invalid(CodeAuthRequired)
	}
	if blank(sub.Form.FullName) || blank(sub.Form.Phone) {
		return invalid(CodeContactRequired)
	}
	if blank(sub.Form.Date) {
		return invalid(CodeDateRequired)
	}
	if sub.Form.Service.RequiresSpecialty {
		if blank(sub.Form.SpecialtyID) {
			return invalid(CodeSpecialtyRequired)
		}
		if !sub.Form.AutoAssign && blank(sub.Form.DoctorID) {
			return invalid(CodeDoctorRequired)
		}
	}
	if sub.Choice == nil || blank(sub.Choice.ScheduleID) {
		return invalid(CodeSlotRequired)
	}
	return nil
}
