package booking

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// AppointmentCreator is the backend's appointment-creation endpoint.
type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, req portalapi.AppointmentRequest) (*portalapi.AppointmentResult, error)
}

// ValidationObserver counts rejected submissions.
type ValidationObserver interface {
	ObserveValidationFailure(code string)
}

// Result is what a successful submission hands back to the portal.
type Result struct {
	Appointment   portalapi.Appointment `json:"appointment"`
	HoldExpiresAt *time.Time            `json:"holdExpiresAt,omitempty"`
	HoldMinutes   int                   `json:"holdMinutes,omitempty"`
}

// Submitter validates and forwards bookings.
type Submitter struct {
	creator  AppointmentCreator
	observer ValidationObserver
	logger   *logging.Logger
	now      func() time.Time
}

// NewSubmitter creates a Submitter; observer may be nil.
func NewSubmitter(creator AppointmentCreator, observer ValidationObserver, logger *logging.Logger, now func() time.Time) *Submitter {
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Submitter{creator: creator, observer: observer, logger: logger, now: now}
}

// Submit validates sub and, when it passes, creates the appointment. A
// *ValidationError means nothing was sent.
func (s *Submitter) Submit(ctx context.Context, sub Submission) (*Result, error) {
	if err := Validate(sub); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && s.observer != nil {
			s.observer.ObserveValidationFailure(verr.Code)
		}
		return nil, err
	}

	req := BuildRequest(sub)
	resp, err := s.creator.CreateAppointment(ctx, req)
	if err != nil {
		s.logger.Error("appointment creation failed", "schedule_id", req.ScheduleID, "doctor_id", req.DoctorID, "error", err)
		return nil, err
	}

	result := &Result{Appointment: resp.Appointment, HoldExpiresAt: resp.HoldExpiresAt}
	if resp.HoldExpiresAt != nil {
		result.HoldMinutes = HoldMinutes(*resp.HoldExpiresAt, s.now())
	}
	s.logger.Info("appointment created", "appointment_id", resp.Appointment.ID, "schedule_id", req.ScheduleID, "hold_minutes", result.HoldMinutes)
	return result, nil
}
