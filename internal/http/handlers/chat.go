package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/wolfman30/medbook-portal/internal/chat"
	"github.com/wolfman30/medbook-portal/internal/notify"
	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

const maxMessageRunes = 2000

// ChatAPI is the backend's conversation REST API.
type ChatAPI interface {
	ListMessages(ctx context.Context, conversationID, afterID string) ([]portalapi.ChatMessage, error)
	SendMessage(ctx context.Context, conversationID, body string) (*portalapi.ChatMessage, error)
}

// ChatHandler serves conversation history, sends messages and relays new
// messages to the browser over a WebSocket.
type ChatHandler struct {
	api        ChatAPI
	subscriber chat.Subscriber
	upgrader   *websocket.Upgrader
	logger     *logging.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(api ChatAPI, subscriber chat.Subscriber, upgrader *websocket.Upgrader, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if upgrader == nil {
		upgrader = NewUpgrader(nil)
	}
	return &ChatHandler{api: api, subscriber: subscriber, upgrader: upgrader, logger: logger}
}

// List handles GET /api/chat/{conversationID}/messages?after=.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	msgs, err := h.api.ListMessages(r.Context(), conversationID, r.URL.Query().Get("after"))
	if err != nil {
		h.logger.Warn("failed to list messages", "conversation_id", conversationID, "error", err)
		writeNotice(w, notify.ForError(notify.OpLoadMessages, err))
		return
	}
	if msgs == nil {
		msgs = []portalapi.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// Send handles POST /api/chat/{conversationID}/messages.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "Tin nhắn không hợp lệ")
		return
	}
	body := strings.TrimSpace(req.Content)
	if body == "" || utf8.RuneCountInString(body) > maxMessageRunes {
		badRequest(w, "Tin nhắn không hợp lệ")
		return
	}
	msg, err := h.api.SendMessage(r.Context(), conversationID, body)
	if err != nil {
		h.logger.Warn("failed to send message", "conversation_id", conversationID, "error", err)
		writeNotice(w, notify.ForError(notify.OpSendMessage, err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

// Stream handles GET /api/chat/{conversationID}/stream.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	msgs, err := h.subscriber.Subscribe(ctx, conversationID)
	if err != nil {
		h.logger.Warn("chat subscribe failed", "conversation_id", conversationID, "error", err)
		writeNotice(w, notify.ForError(notify.OpLoadMessages, err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("chat upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	go readUntilClosed(conn, cancel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(wsWriteWait))
				return
			}
			m := msg
			if err := writeFrame(conn, chat.Frame{Type: chat.FrameMessage, Data: &m}); err != nil {
				return
			}
		}
	}
}
