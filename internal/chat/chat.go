// Package chat delivers new conversation messages to the portal, over the
// backend's WebSocket stream when it is reachable and by polling otherwise.
package chat

import (
	"context"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
)

// FrameMessage is the frame type carrying a chat message.
const FrameMessage = "message"

// Frame is the JSON envelope used on chat sockets.
type Frame struct {
	Type string                 `json:"type"`
	Data *portalapi.ChatMessage `json:"data,omitempty"`
}

// Subscriber streams messages posted to a conversation after the call. The
// channel is closed when ctx is done or the source ends.
type Subscriber interface {
	Subscribe(ctx context.Context, conversationID string) (<-chan portalapi.ChatMessage, error)
}

// Resumer is a Subscriber that can pick up after the last message a previous
// subscription delivered.
type Resumer interface {
	SubscribeAfter(ctx context.Context, conversationID, afterID string) (<-chan portalapi.ChatMessage, error)
}

// MessageLister reads conversation history from the REST API.
type MessageLister interface {
	ListMessages(ctx context.Context, conversationID, afterID string) ([]portalapi.ChatMessage, error)
}

// FallbackObserver counts switches to the secondary subscriber.
type FallbackObserver interface {
	ObserveChatFallback()
}

func deliver(ctx context.Context, out chan<- portalapi.ChatMessage, msg portalapi.ChatMessage) bool {
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
