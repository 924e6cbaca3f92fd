package chat

import (
	"context"
	"errors"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// FailoverSubscriber subscribes through the primary source and switches to
// the secondary when the primary cannot be opened or ends early.
type FailoverSubscriber struct {
	primary       Subscriber
	secondary     Subscriber
	primaryName   string
	secondaryName string
	observer      FallbackObserver
	logger        *logging.Logger
}

// NewFailoverSubscriber builds a failover subscriber with named sources.
func NewFailoverSubscriber(primary Subscriber, primaryName string, secondary Subscriber, secondaryName string, observer FallbackObserver, logger *logging.Logger) *FailoverSubscriber {
	if logger == nil {
		logger = logging.Default()
	}
	return &FailoverSubscriber{
		primary:       primary,
		secondary:     secondary,
		primaryName:   primaryName,
		secondaryName: secondaryName,
		observer:      observer,
		logger:        logger,
	}
}

var _ Subscriber = (*FailoverSubscriber)(nil)

func (f *FailoverSubscriber) Subscribe(ctx context.Context, conversationID string) (<-chan portalapi.ChatMessage, error) {
	if f == nil || (f.primary == nil && f.secondary == nil) {
		return nil, errors.New("chat: no subscriber configured")
	}
	if f.primary == nil {
		return f.secondary.Subscribe(ctx, conversationID)
	}

	primary, err := f.primary.Subscribe(ctx, conversationID)
	if err != nil {
		if f.secondary == nil {
			return nil, err
		}
		f.logger.Warn("chat subscribe failed; attempting fallback",
			"provider", f.primaryName,
			"fallback", f.secondaryName,
			"conversation_id", conversationID,
			"error", err,
		)
		f.observeFallback()
		return f.secondary.Subscribe(ctx, conversationID)
	}
	if f.secondary == nil {
		return primary, nil
	}

	out := make(chan portalapi.ChatMessage, 16)
	go f.forward(ctx, conversationID, primary, out)
	return out, nil
}

func (f *FailoverSubscriber) forward(ctx context.Context, conversationID string, primary <-chan portalapi.ChatMessage, out chan<- portalapi.ChatMessage) {
	defer close(out)
	lastID := ""
	for msg := range primary {
		if !deliver(ctx, out, msg) {
			return
		}
		if msg.ID != "" {
			lastID = msg.ID
		}
	}
	if ctx.Err() != nil {
		return
	}

	f.logger.Warn("chat stream ended; switching to fallback",
		"provider", f.primaryName,
		"fallback", f.secondaryName,
		"conversation_id", conversationID,
		"resume_after", lastID,
	)
	f.observeFallback()
	secondary, err := f.resume(ctx, conversationID, lastID)
	if err != nil {
		f.logger.Error("chat fallback subscribe failed",
			"provider", f.secondaryName,
			"conversation_id", conversationID,
			"error", err,
		)
		return
	}
	for msg := range secondary {
		if !deliver(ctx, out, msg) {
			return
		}
	}
}

// resume opens the secondary after lastID so messages posted while the
// primary was going away are still delivered.
func (f *FailoverSubscriber) resume(ctx context.Context, conversationID, lastID string) (<-chan portalapi.ChatMessage, error) {
	if r, ok := f.secondary.(Resumer); ok && lastID != "" {
		return r.SubscribeAfter(ctx, conversationID, lastID)
	}
	return f.secondary.Subscribe(ctx, conversationID)
}

func (f *FailoverSubscriber) observeFallback() {
	if f.observer != nil {
		f.observer.ObserveChatFallback()
	}
}
