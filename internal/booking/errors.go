// Package booking holds the patient booking form logic: selection state,
// the pre-submission guard and the appointment payload.
package booking

import "errors"

// ErrStaleGeneration is returned when a load finished after the filters it
// was issued for had already changed.
var ErrStaleGeneration = errors.New("booking: result superseded by newer filters")

// ErrUnknownChoice is returned when selecting a key that was not offered.
var ErrUnknownChoice = errors.New("booking: choice not among loaded options")

// Validation codes, in the order the guard checks them.
const (
	CodeAuthRequired      = "auth_required"
	CodeContactRequired   = "contact_required"
	CodeDateRequired      = "date_required"
	CodeSpecialtyRequired = "specialty_required"
	CodeDoctorRequired    = "doctor_required"
	CodeSlotRequired      = "slot_required"
)

var validationMessages = map[string]string{
	CodeAuthRequired:      "Vui lòng đăng nhập để đặt lịch khám",
	CodeContactRequired:   "Vui lòng nhập đầy đủ họ tên và số điện thoại",
	CodeDateRequired:      "Vui lòng chọn ngày khám",
	CodeSpecialtyRequired: "Vui lòng chọn chuyên khoa",
	CodeDoctorRequired:    "Vui lòng chọn bác sĩ",
	CodeSlotRequired:      "Vui lòng chọn khung giờ khám",
}

// ValidationError is a user-facing rejection raised before any backend call.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(code string) *ValidationError {
	return &ValidationError{Code: code, Message: validationMessages[code]}
}

// NewValidationError returns the standard rejection for code.
func NewValidationError(code string) *ValidationError {
	return invalid(code)
}
