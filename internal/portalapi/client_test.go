package portalapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medbook-portal/pkg/logging"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	codes []int
}

func (r *recordingObserver) ObserveBackendCall(endpoint string, status int, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, endpoint)
	r.codes = append(r.codes, status)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, logging.New("error"), opts...)
}

func TestClient_ListDoctors_Envelope(t *testing.T) {
	obs := &recordingObserver{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/doctor/doctors", r.URL.Path)
		require.Equal(t, "sp-cardio", r.URL.Query().Get("specialty"))
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"_id":"d1","fullName":"BS. An","experience":12,"specialty":"sp-cardio"},
			{"_id":"d2","fullName":"BS. Binh","experience":"7","specialty":{"_id":"sp-cardio","name":"Tim mạch"}},
			{"_id":"d3","fullName":"BS. Chi"}]}`))
	}, WithObserver(obs))

	ctx := WithAccessToken(context.Background(), "tok-1")
	doctors, err := client.ListDoctors(ctx, "sp-cardio")
	require.NoError(t, err)
	require.Len(t, doctors, 3)

	assert.Equal(t, Years(12), doctors[0].Experience)
	assert.Equal(t, "sp-cardio", doctors[0].Specialty.ID())
	assert.Equal(t, Years(7), doctors[1].Experience)
	sp, ok := doctors[1].Specialty.Expanded()
	require.True(t, ok)
	assert.Equal(t, "Tim mạch", sp.Name)
	assert.Equal(t, Years(0), doctors[2].Experience)

	assert.Equal(t, []string{"doctors.list"}, obs.calls)
	assert.Equal(t, []int{200}, obs.codes)
}

func TestClient_GetDoctorSchedules_BareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/doctor/doctors/schedules/d1", r.URL.Path)
		_, _ = w.Write([]byte(`[{"_id":"s1","date":"2026-10-20","startTime":"08:00","endTime":"09:00","status":"accepted","isBooked":false}]`))
	})

	blocks, err := client.GetDoctorSchedules(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "s1", blocks[0].ID)
	assert.True(t, blocks[0].Bookable())
}

func TestClient_ListActiveSpecialties(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/specialties/active", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"_id":"sp1","name":"Nhi khoa","isActive":true}]}`))
	})

	specialties, err := client.ListActiveSpecialties(context.Background())
	require.NoError(t, err)
	require.Len(t, specialties, 1)
	assert.Equal(t, "Nhi khoa", specialties[0].Name)
}

func TestClient_CreateAppointment_LiftsHoldExpiry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/appointments", r.URL.Path)
		var req AppointmentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sch-1", req.ScheduleID)
		assert.Equal(t, "Dịch vụ: Khám tổng quát", req.Note)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"appointment":{"_id":"a1","doctorId":{"_id":"d1","fullName":"BS. An"},"scheduleId":"sch-1","holdExpiresAt":"2026-10-17T10:15:00Z"}}}`))
	})

	res, err := client.CreateAppointment(context.Background(), AppointmentRequest{
		FullName: "Nguyễn Văn A", Phone: "0901234567", ScheduleID: "sch-1", Note: "Dịch vụ: Khám tổng quát",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", res.Appointment.ID)
	assert.Equal(t, "d1", res.Appointment.Doctor.ID())
	assert.Equal(t, "sch-1", res.Appointment.Schedule.ID())
	require.NotNil(t, res.HoldExpiresAt)
	assert.True(t, res.HoldExpiresAt.Equal(time.Date(2026, 10, 17, 10, 15, 0, 0, time.UTC)))
}

func TestClient_APIError(t *testing.T) {
	obs := &recordingObserver{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Không tìm thấy bác sĩ"}`))
	}, WithObserver(obs))

	_, err := client.GetDoctorSchedules(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Không tìm thấy bác sĩ", apiErr.Message)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, []int{404}, obs.codes)
}

func TestClient_EnvelopeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"hết chỗ","data":null}`))
	})
	_, err := client.ListActiveSpecialties(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hết chỗ")
}

func TestClient_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":`))
	})
	_, err := client.ListDoctors(context.Background(), "")
	assert.Error(t, err)
}

func TestClient_PaymentsAndChat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/a1":
			_, _ = w.Write([]byte(`{"amount":250000,"currency":"VND","status":"pending"}`))
		case "/payments/a1/refund":
			require.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte(`{"appointmentId":"a1","status":"refunded"}`))
		case "/payments/a1/process":
			_, _ = w.Write([]byte(`{"paymentUrl":"https://pay.example/x","status":"redirect"}`))
		case "/chat/c1/messages":
			if r.Method == http.MethodPost {
				_, _ = w.Write([]byte(`{"_id":"m3","content":"xin chào"}`))
				return
			}
			require.Equal(t, "m1", r.URL.Query().Get("after"))
			_, _ = w.Write([]byte(`[{"_id":"m2","content":"hi"}]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	details, err := client.GetPaymentDetails(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", details.AppointmentID)
	assert.Equal(t, float64(250000), details.Amount)

	refunded, err := client.RefundPayment(ctx, "a1", RefundRequest{Reason: "đổi lịch"})
	require.NoError(t, err)
	assert.Equal(t, "refunded", refunded.Status)

	processed, err := client.ProcessPayment(ctx, "a1", ProcessPaymentRequest{Method: "vnpay"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/x", processed.PaymentURL)

	msgs, err := client.ListMessages(ctx, "c1", "m1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)

	sent, err := client.SendMessage(ctx, "c1", "xin chào")
	require.NoError(t, err)
	assert.Equal(t, "m3", sent.ID)
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListActiveSpecialties(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
