package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

func validSubmission() Submission {
	return Submission{
		PatientID: "p1",
		Form: Form{
			FullName:    "Nguyễn Văn A",
			Phone:       "0901234567",
			Date:        "2026-10-20",
			SpecialtyID: "sp1",
			DoctorID:    "d1",
			Service:     ServiceOption{Label: "Khám chuyên khoa", RequiresSpecialty: true},
		},
		Choice: &Choice{Key: "s1@09:00", ScheduleID: "s1", Date: "2026-10-20", Time: "09:00"},
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Code
}

func TestValidate_Order(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
		want   string
	}{
		{"unauthenticated wins over everything", func(s *Submission) {
			*s = Submission{}
		}, CodeAuthRequired},
		{"missing phone", func(s *Submission) { s.Form.Phone = "  " }, CodeContactRequired},
		{"missing name before date", func(s *Submission) { s.Form.FullName = ""; s.Form.Date = "" }, CodeContactRequired},
		{"missing date", func(s *Submission) { s.Form.Date = ""; s.Choice = nil }, CodeDateRequired},
		{"missing specialty", func(s *Submission) { s.Form.SpecialtyID = ""; s.Form.DoctorID = "" }, CodeSpecialtyRequired},
		{"manual mode needs doctor", func(s *Submission) { s.Form.DoctorID = "" }, CodeDoctorRequired},
		{"missing slot", func(s *Submission) { s.Choice = nil }, CodeSlotRequired},
		{"empty schedule id", func(s *Submission) { s.Choice = &Choice{} }, CodeSlotRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			assert.Equal(t, tt.want, codeOf(t, Validate(sub)))
		})
	}
}

func TestValidate_AutoAssignSkipsDoctor(t *testing.T) {
	sub := validSubmission()
	sub.Form.DoctorID = ""
	sub.Form.AutoAssign = true
	assert.NoError(t, Validate(sub))
}

func TestValidate_ServiceWithoutSpecialty(t *testing.T) {
	sub := validSubmission()
	sub.Form.Service.RequiresSpecialty = false
	sub.Form.SpecialtyID = ""
	sub.Form.DoctorID = ""
	assert.NoError(t, Validate(sub))
}

func TestValidationMessages(t *testing.T) {
	err := Validate(Submission{})
	assert.Equal(t, "Vui lòng đăng nhập để đặt lịch khám", err.Error())
}

func TestBuildNote(t *testing.T) {
	assert.Equal(t, "Dịch vụ: Khám tổng quát", BuildNote("Khám tổng quát", "  "))
	assert.Equal(t, "Dịch vụ: Xét nghiệm - Ghi chú: nhịn ăn", BuildNote(" Xét nghiệm ", "nhịn ăn"))
}

func TestBuildRequest_UsesSuggestionDoctor(t *testing.T) {
	sub := validSubmission()
	sub.Form.AutoAssign = true
	sub.Form.DoctorID = ""
	sub.Choice.DoctorID = "d9"
	sub.Form.Note = "đau đầu"

	req := BuildRequest(sub)

	assert.Equal(t, "d9", req.DoctorID)
	assert.Equal(t, "s1", req.ScheduleID)
	assert.Equal(t, "p1", req.PatientID)
	assert.Equal(t, "09:00", req.Time)
	assert.Equal(t, "Dịch vụ: Khám chuyên khoa - Ghi chú: đau đầu", req.Note)
}

func TestHoldMinutes(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 15, HoldMinutes(now.Add(15*time.Minute), now))
	assert.Equal(t, 15, HoldMinutes(now.Add(14*time.Minute+time.Second), now))
	assert.Equal(t, 1, HoldMinutes(now.Add(10*time.Second), now))
	assert.Equal(t, 1, HoldMinutes(now.Add(-time.Minute), now))
}

type stubCreator struct {
	calls int
	req   portalapi.AppointmentRequest
	resp  *portalapi.AppointmentResult
	err   error
}

func (s *stubCreator) CreateAppointment(_ context.Context, req portalapi.AppointmentRequest) (*portalapi.AppointmentResult, error) {
	s.calls++
	s.req = req
	return s.resp, s.err
}

type codeRecorder struct{ codes []string }

func (c *codeRecorder) ObserveValidationFailure(code string) { c.codes = append(c.codes, code) }

func TestSubmitter_ValidationNeverCallsBackend(t *testing.T) {
	creator := &stubCreator{}
	rec := &codeRecorder{}
	s := NewSubmitter(creator, rec, logging.New("error"), nil)

	_, err := s.Submit(context.Background(), Submission{Form: Form{FullName: "x"}})

	assert.Equal(t, CodeAuthRequired, codeOf(t, err))
	assert.Zero(t, creator.calls)
	assert.Equal(t, []string{CodeAuthRequired}, rec.codes)
}

func TestSubmitter_ComputesHoldMinutes(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	expires := now.Add(9*time.Minute + 30*time.Second)
	creator := &stubCreator{resp: &portalapi.AppointmentResult{
		Appointment:   portalapi.Appointment{ID: "a1"},
		HoldExpiresAt: &expires,
	}}
	s := NewSubmitter(creator, nil, logging.New("error"), func() time.Time { return now })

	res, err := s.Submit(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.Equal(t, 1, creator.calls)
	assert.Equal(t, "a1", res.Appointment.ID)
	assert.Equal(t, 10, res.HoldMinutes)
	assert.Equal(t, "Dịch vụ: Khám chuyên khoa", creator.req.Note)
}

func TestSubmitter_BackendFailure(t *testing.T) {
	creator := &stubCreator{err: &portalapi.APIError{Status: 409, Message: "slot taken"}}
	s := NewSubmitter(creator, nil, logging.New("error"), nil)

	_, err := s.Submit(context.Background(), validSubmission())

	var apiErr *portalapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 409, apiErr.Status)
}
