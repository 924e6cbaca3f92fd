package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/medbook-portal/internal/schedule"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:5000/api"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 300
)

var tracer = otel.Tracer("medbook.internal.portalapi")

// CallObserver receives one observation per backend request.
type CallObserver interface {
	ObserveBackendCall(endpoint string, status int, seconds float64)
}

// Client wraps the REST calls the portals make against the booking backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	observer   CallObserver
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithObserver records request metrics.
func WithObserver(o CallObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient constructs a backend client rooted at baseURL.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListDoctors returns doctors, optionally restricted to one specialty.
func (c *Client) ListDoctors(ctx context.Context, specialtyID string) ([]Doctor, error) {
	path := "/doctor/doctors"
	if specialtyID != "" {
		path += "?" + url.Values{"specialty": {specialtyID}}.Encode()
	}
	var doctors []Doctor
	if err := c.doJSON(ctx, http.MethodGet, "doctors.list", path, nil, &doctors); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// GetDoctorSchedules returns every schedule block a doctor has published.
func (c *Client) GetDoctorSchedules(ctx context.Context, doctorID string) ([]schedule.Block, error) {
	path := "/doctor/doctors/schedules/" + url.PathEscape(doctorID)
	var blocks []schedule.Block
	if err := c.doJSON(ctx, http.MethodGet, "doctors.schedules", path, nil, &blocks); err != nil {
		return nil, fmt.Errorf("get schedules for doctor %s: %w", doctorID, err)
	}
	return blocks, nil
}

// ListActiveSpecialties returns the specialties patients can book against.
func (c *Client) ListActiveSpecialties(ctx context.Context) ([]Specialty, error) {
	var specialties []Specialty
	if err := c.doJSON(ctx, http.MethodGet, "specialties.active", "/specialties/active", nil, &specialties); err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	return specialties, nil
}

// CreateAppointment submits a booking. The hold expiry is lifted from the
// appointment when the backend only reports it there.
func (c *Client) CreateAppointment(ctx context.Context, req AppointmentRequest) (*AppointmentResult, error) {
	var resp AppointmentResult
	if err := c.doJSON(ctx, http.MethodPost, "appointments.create", "/appointments", req, &resp); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	if resp.HoldExpiresAt == nil {
		resp.HoldExpiresAt = resp.Appointment.HoldExpiresAt
	}
	return &resp, nil
}

// GetPaymentDetails returns payment and invoice state for an appointment.
func (c *Client) GetPaymentDetails(ctx context.Context, appointmentID string) (*PaymentDetails, error) {
	path := "/payments/" + url.PathEscape(appointmentID)
	var details PaymentDetails
	if err := c.doJSON(ctx, http.MethodGet, "payments.details", path, nil, &details); err != nil {
		return nil, fmt.Errorf("get payment details: %w", err)
	}
	if details.AppointmentID == "" {
		details.AppointmentID = appointmentID
	}
	return &details, nil
}

// ProcessPayment starts payment for an appointment.
func (c *Client) ProcessPayment(ctx context.Context, appointmentID string, req ProcessPaymentRequest) (*ProcessPaymentResult, error) {
	path := "/payments/" + url.PathEscape(appointmentID) + "/process"
	var resp ProcessPaymentResult
	if err := c.doJSON(ctx, http.MethodPost, "payments.process", path, req, &resp); err != nil {
		return nil, fmt.Errorf("process payment: %w", err)
	}
	return &resp, nil
}

// RefundPayment asks the backend to refund an appointment's payment.
func (c *Client) RefundPayment(ctx context.Context, appointmentID string, req RefundRequest) (*PaymentDetails, error) {
	path := "/payments/" + url.PathEscape(appointmentID) + "/refund"
	var details PaymentDetails
	if err := c.doJSON(ctx, http.MethodPost, "payments.refund", path, req, &details); err != nil {
		return nil, fmt.Errorf("refund payment: %w", err)
	}
	return &details, nil
}

// ListMessages returns messages of a conversation, newer than afterID when set.
func (c *Client) ListMessages(ctx context.Context, conversationID, afterID string) ([]ChatMessage, error) {
	path := "/chat/" + url.PathEscape(conversationID) + "/messages"
	if afterID != "" {
		path += "?" + url.Values{"after": {afterID}}.Encode()
	}
	var msgs []ChatMessage
	if err := c.doJSON(ctx, http.MethodGet, "chat.list", path, nil, &msgs); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// SendMessage posts a message to a conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID, body string) (*ChatMessage, error) {
	path := "/chat/" + url.PathEscape(conversationID) + "/messages"
	var msg ChatMessage
	payload := map[string]string{"content": body}
	if err := c.doJSON(ctx, http.MethodPost, "chat.send", path, payload, &msg); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &msg, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint, path string, body interface{}, out interface{}) (err error) {
	ctx, span := tracer.Start(ctx, "portalapi."+endpoint, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("medbook.endpoint", endpoint))

	start := time.Now()
	status := 0
	defer func() {
		if c.observer != nil {
			c.observer.ObserveBackendCall(endpoint, status, time.Since(start).Seconds())
		}
	}()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := AccessTokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", status))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Path: path, Message: errorMessage(respBody)}
		c.logger.Warn("backend non-2xx response", "status", resp.StatusCode, "path", path, "message", apiErr.Message)
		return apiErr
	}

	if len(bytes.TrimSpace(respBody)) == 0 || out == nil {
		return nil
	}
	if err := decodeBody(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeBody unwraps {"success":..,"data":..} envelopes and decodes bare
// values as they are.
func decodeBody(raw []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 {
			if env.Success != nil && !*env.Success {
				return fmt.Errorf("backend reported failure: %s", env.Message)
			}
			return json.Unmarshal(env.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
