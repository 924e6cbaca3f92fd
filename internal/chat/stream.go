package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// StreamSubscriber reads messages from the backend's chat WebSocket at
// {baseURL}/{conversationID}.
type StreamSubscriber struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *logging.Logger
}

// NewStreamSubscriber dials baseURL, e.g. ws://backend:5000/ws/chat.
func NewStreamSubscriber(baseURL string, logger *logging.Logger) *StreamSubscriber {
	if logger == nil {
		logger = logging.Default()
	}
	return &StreamSubscriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

// Subscribe opens the stream. Dial failures are returned so callers can
// fall back to polling.
func (s *StreamSubscriber) Subscribe(ctx context.Context, conversationID string) (<-chan portalapi.ChatMessage, error) {
	if s == nil || s.baseURL == "" {
		return nil, errors.New("chat: stream url not configured")
	}
	if conversationID == "" {
		return nil, errors.New("chat: conversation id required")
	}
	header := http.Header{}
	if token, ok := portalapi.AccessTokenFromContext(ctx); ok {
		header.Set("Authorization", "Bearer "+token)
	}
	endpoint := s.baseURL + "/" + url.PathEscape(conversationID)
	conn, resp, err := s.dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("chat: dial stream: %w", err)
	}

	out := make(chan portalapi.ChatMessage, 16)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	go func() {
		defer close(done)
		s.read(ctx, conn, conversationID, out)
	}()
	return out, nil
}

func (s *StreamSubscriber) read(ctx context.Context, conn *websocket.Conn, conversationID string, out chan<- portalapi.ChatMessage) {
	defer close(out)
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("chat: stream closed", "conversation_id", conversationID, "error", err)
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.logger.Debug("chat: ignoring malformed frame", "conversation_id", conversationID, "error", err)
			continue
		}
		if frame.Type != FrameMessage || frame.Data == nil || frame.Data.ID == "" {
			continue
		}
		if !deliver(ctx, out, *frame.Data) {
			return
		}
	}
}
