package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wolfman30/medbook-portal/internal/countdown"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// CountdownHandler streams payment-hold countdown ticks over a WebSocket.
type CountdownHandler struct {
	upgrader *websocket.Upgrader
	logger   *logging.Logger
	now      func() time.Time
}

// NewCountdownHandler creates a countdown handler.
func NewCountdownHandler(upgrader *websocket.Upgrader, logger *logging.Logger) *CountdownHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if upgrader == nil {
		upgrader = NewUpgrader(nil)
	}
	return &CountdownHandler{upgrader: upgrader, logger: logger, now: time.Now}
}

// Serve handles GET /api/holds/countdown?expiresAt=&serverNow=. One tick is
// sent per second; the socket closes after the expiry tick.
func (h *CountdownHandler) Serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expiresAt, err := time.Parse(time.RFC3339, q.Get("expiresAt"))
	if err != nil {
		badRequest(w, "Thời hạn giữ chỗ không hợp lệ")
		return
	}
	opts := []countdown.Option{countdown.WithClock(h.now)}
	if raw := q.Get("serverNow"); raw != "" {
		serverNow, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(w, "Thời gian máy chủ không hợp lệ")
			return
		}
		opts = append(opts, countdown.WithServerNow(serverNow))
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("countdown upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readUntilClosed(conn, cancel)

	opts = append(opts, countdown.OnExpire(func() {
		h.logger.Info("payment hold expired", "expires_at", expiresAt)
	}))
	cd := countdown.New(expiresAt, opts...)
	_ = cd.Run(ctx, func(t countdown.Tick) {
		if err := writeFrame(conn, t); err != nil {
			cancel()
			return
		}
		if t.Expired {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, countdown.ExpiredLabel),
				time.Now().Add(wsWriteWait))
			cancel()
		}
	})
}
