// Package portalapi is the REST client for the booking backend the portals
// are built on.
package portalapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/medbook-portal/internal/ref"
	"github.com/wolfman30/medbook-portal/internal/schedule"
)

// Specialty is a medical specialty in the directory.
type Specialty struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
}

func (s Specialty) RefID() string { return s.ID }

// Years is a numeric experience value that tolerates strings and nulls.
type Years float64

func (y *Years) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*y = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*y = 0
		return nil
	}
	*y = Years(v)
	return nil
}

// Doctor is a directory entry for a bookable doctor.
type Doctor struct {
	ID         string             `json:"_id"`
	FullName   string             `json:"fullName"`
	Email      string             `json:"email,omitempty"`
	Phone      string             `json:"phone,omitempty"`
	Avatar     string             `json:"avatar,omitempty"`
	Specialty  ref.Ref[Specialty] `json:"specialty"`
	Experience Years              `json:"experience"`
	IsActive   bool               `json:"isActive"`
}

func (d Doctor) RefID() string { return d.ID }

// Service is a bookable service; appointments may embed it or reference it.
type Service struct {
	ID                string `json:"_id"`
	Name              string `json:"name"`
	RequiresSpecialty bool   `json:"requiresSpecialty,omitempty"`
}

func (s Service) RefID() string { return s.ID }

// Appointment is the backend's view of a booking.
type Appointment struct {
	ID            string                  `json:"_id"`
	Doctor        ref.Ref[Doctor]         `json:"doctorId"`
	Schedule      ref.Ref[schedule.Block] `json:"scheduleId"`
	Service       ref.Ref[Service]        `json:"service"`
	PatientName   string                  `json:"fullName,omitempty"`
	Phone         string                  `json:"phone,omitempty"`
	Email         string                  `json:"email,omitempty"`
	Date          string                  `json:"date,omitempty"`
	Time          string                  `json:"time,omitempty"`
	Note          string                  `json:"note,omitempty"`
	Status        string                  `json:"status,omitempty"`
	HoldExpiresAt *time.Time              `json:"holdExpiresAt,omitempty"`
}

// AppointmentRequest is the creation payload.
type AppointmentRequest struct {
	PatientID  string `json:"patientId,omitempty"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	DoctorID   string `json:"doctorId,omitempty"`
	ScheduleID string `json:"scheduleId"`
	Specialty  string `json:"specialty,omitempty"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Note       string `json:"note"`
}

// AppointmentResult is the creation response.
type AppointmentResult struct {
	Appointment   Appointment `json:"appointment"`
	HoldExpiresAt *time.Time  `json:"holdExpiresAt,omitempty"`
}

// PaymentDetails summarises the payment and invoice state of an appointment.
type PaymentDetails struct {
	AppointmentID string     `json:"appointmentId"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency,omitempty"`
	Status        string     `json:"status"`
	Method        string     `json:"method,omitempty"`
	InvoiceNumber string     `json:"invoiceNumber,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	HoldExpiresAt *time.Time `json:"holdExpiresAt,omitempty"`
	ServerNow     *time.Time `json:"serverNow,omitempty"`
}

// RefundRequest asks the backend to refund a captured payment.
type RefundRequest struct {
	Reason string `json:"reason"`
}

// ProcessPaymentRequest starts a payment for an appointment.
type ProcessPaymentRequest struct {
	Method    string `json:"method"`
	ReturnURL string `json:"returnUrl,omitempty"`
}

// ProcessPaymentResult points the patient at the payment page.
type ProcessPaymentResult struct {
	PaymentURL string `json:"paymentUrl,omitempty"`
	Status     string `json:"status"`
}

// ChatMessage is one message of a patient/doctor conversation.
type ChatMessage struct {
	ID             string    `json:"_id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Body           string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// envelope is the backend's optional response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}
