package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/medbook-portal/internal/notify"
	"github.com/wolfman30/medbook-portal/internal/payments"
	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// PaymentActions starts payments and requests refunds on the backend.
type PaymentActions interface {
	ProcessPayment(ctx context.Context, appointmentID string, req portalapi.ProcessPaymentRequest) (*portalapi.ProcessPaymentResult, error)
	RefundPayment(ctx context.Context, appointmentID string, req portalapi.RefundRequest) (*portalapi.PaymentDetails, error)
}

// PaymentsHandler shows payment and invoice details and forwards payment
// and refund requests.
type PaymentsHandler struct {
	loaders *payments.Registry
	actions PaymentActions
	logger  *logging.Logger
}

// NewPaymentsHandler creates a payments handler.
func NewPaymentsHandler(loaders *payments.Registry, actions PaymentActions, logger *logging.Logger) *PaymentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PaymentsHandler{loaders: loaders, actions: actions, logger: logger}
}

// Get handles GET /api/payments/{appointmentID}.
func (h *PaymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := browserID(r)
	if err != nil {
		badRequest(w, "Thiếu định danh trình duyệt")
		return
	}
	appointmentID := strings.TrimSpace(chi.URLParam(r, "appointmentID"))
	details, err := h.loaders.For(id).Load(r.Context(), appointmentID)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		h.logger.Warn("failed to load payment details", "appointment_id", appointmentID, "error", err)
		writeNotice(w, notify.ForError(notify.OpLoadPayment, err))
		return
	}
	writeJSON(w, http.StatusOK, details)
}

type processResponse struct {
	Payment *portalapi.ProcessPaymentResult `json:"payment"`
	Notice  notify.Notice                   `json:"notice"`
}

// Process handles POST /api/payments/{appointmentID}/process.
func (h *PaymentsHandler) Process(w http.ResponseWriter, r *http.Request) {
	appointmentID := strings.TrimSpace(chi.URLParam(r, "appointmentID"))
	var req portalapi.ProcessPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Method) == "" {
		badRequest(w, "Vui lòng chọn phương thức thanh toán")
		return
	}
	result, err := h.actions.ProcessPayment(r.Context(), appointmentID, req)
	if err != nil {
		h.logger.Error("payment failed", "appointment_id", appointmentID, "method", req.Method, "error", err)
		writeNotice(w, notify.ForError(notify.OpPay, err))
		return
	}
	if id, err := browserID(r); err == nil {
		h.loaders.For(id).Invalidate(appointmentID)
	}
	h.logger.Info("payment started", "appointment_id", appointmentID, "status", result.Status)
	writeJSON(w, http.StatusOK, processResponse{Payment: result, Notice: notify.Success(notify.OpPay)})
}

type refundResponse struct {
	Payment *portalapi.PaymentDetails `json:"payment"`
	Notice  notify.Notice             `json:"notice"`
}

// Refund handles POST /api/payments/{appointmentID}/refund.
func (h *PaymentsHandler) Refund(w http.ResponseWriter, r *http.Request) {
	appointmentID := strings.TrimSpace(chi.URLParam(r, "appointmentID"))
	var req portalapi.RefundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "Yêu cầu hoàn tiền không hợp lệ")
		return
	}
	details, err := h.actions.RefundPayment(r.Context(), appointmentID, req)
	if err != nil {
		h.logger.Error("refund failed", "appointment_id", appointmentID, "error", err)
		writeNotice(w, notify.ForError(notify.OpRefund, err))
		return
	}
	if id, err := browserID(r); err == nil {
		h.loaders.For(id).Invalidate(appointmentID)
	}
	h.logger.Info("refund requested", "appointment_id", appointmentID, "status", details.Status)
	writeJSON(w, http.StatusOK, refundResponse{Payment: details, Notice: notify.Success(notify.OpRefund)})
}
