// Package notify turns operation outcomes into the short Vietnamese notices
// shown to portal users. Raw error text never reaches a notice except for
// messages the backend marks as user-facing.
package notify

import (
	"context"
	"errors"
	"net/http"

	"github.com/wolfman30/medbook-portal/internal/booking"
	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/internal/session"
	"github.com/wolfman30/medbook-portal/internal/tour"
)

// Level is the toast severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Op names the user action a notice reports on.
type Op string

const (
	OpLoadSpecialties Op = "load_specialties"
	OpLoadDoctors     Op = "load_doctors"
	OpLoadSlots       Op = "load_slots"
	OpLoadSuggestions Op = "load_suggestions"
	OpBook            Op = "book"
	OpLoadPayment     Op = "load_payment"
	OpPay             Op = "pay"
	OpRefund          Op = "refund"
	OpLoadMessages    Op = "load_messages"
	OpSendMessage     Op = "send_message"
	OpSession         Op = "session"
	OpTour            Op = "tour"
)

var failureMessages = map[Op]string{
	OpLoadSpecialties: "Không thể tải danh sách chuyên khoa",
	OpLoadDoctors:     "Không thể tải danh sách bác sĩ",
	OpLoadSlots:       "Không thể tải lịch khám của bác sĩ",
	OpLoadSuggestions: "Không thể tải gợi ý lịch khám",
	OpBook:            "Đặt lịch thất bại",
	OpLoadPayment:     "Không thể tải thông tin thanh toán",
	OpPay:             "Thanh toán thất bại",
	OpRefund:          "Yêu cầu hoàn tiền thất bại",
	OpLoadMessages:    "Không thể tải tin nhắn",
	OpSendMessage:     "Gửi tin nhắn thất bại",
	OpSession:         "Không thể xác thực phiên đăng nhập",
	OpTour:            "Không thể bắt đầu hướng dẫn",
}

var successMessages = map[Op]string{
	OpBook:        "Đặt lịch thành công",
	OpPay:         "Đã khởi tạo thanh toán",
	OpRefund:      "Đã gửi yêu cầu hoàn tiền",
	OpSendMessage: "Đã gửi tin nhắn",
}

const (
	msgSessionExpired = "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại"
	msgNotFound       = "Không tìm thấy dữ liệu"
	msgTimeout        = "Hệ thống phản hồi chậm, vui lòng thử lại"
	msgTourActive     = "Hướng dẫn đang chạy"
)

// Notice is a toast payload with the HTTP status that carries it.
type Notice struct {
	Level   Level  `json:"level"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Success returns the confirmation for op.
func Success(op Op) Notice {
	msg, ok := successMessages[op]
	if !ok {
		msg = "Thành công"
	}
	return Notice{Level: LevelSuccess, Message: msg, Status: http.StatusOK}
}

// ForError classifies err for op.
func ForError(op Op, err error) Notice {
	failure, ok := failureMessages[op]
	if !ok {
		failure = "Đã xảy ra lỗi, vui lòng thử lại"
	}

	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		return Notice{Level: LevelWarning, Code: vErr.Code, Message: vErr.Message, Status: http.StatusUnprocessableEntity}
	}
	switch {
	case errors.Is(err, tour.ErrTourActive):
		return Notice{Level: LevelWarning, Code: "tour_active", Message: msgTourActive, Status: http.StatusConflict}
	case errors.Is(err, session.ErrNotFound), errors.Is(err, portalapi.ErrUnauthorized), errors.Is(err, session.ErrTokenExpired):
		return Notice{Level: LevelError, Code: "unauthorized", Message: msgSessionExpired, Status: http.StatusUnauthorized}
	case errors.Is(err, session.ErrUnknownPortal):
		return Notice{Level: LevelError, Code: "bad_request", Message: failure, Status: http.StatusBadRequest}
	case errors.Is(err, portalapi.ErrNotFound):
		return Notice{Level: LevelError, Code: "not_found", Message: failure + ": " + msgNotFound, Status: http.StatusNotFound}
	case errors.Is(err, context.DeadlineExceeded):
		return Notice{Level: LevelError, Code: "timeout", Message: msgTimeout, Status: http.StatusGatewayTimeout}
	}

	var apiErr *portalapi.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		msg := failure
		if apiErr.Message != "" {
			msg = failure + ": " + apiErr.Message
		}
		return Notice{Level: LevelError, Code: "rejected", Message: msg, Status: apiErr.Status}
	}
	return Notice{Level: LevelError, Code: "upstream", Message: failure, Status: http.StatusBadGateway}
}
