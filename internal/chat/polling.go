package chat

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// DefaultPollInterval bounds how stale a polled conversation can be.
const DefaultPollInterval = 5 * time.Second

// PollingSubscriber asks the REST API for new messages on an interval.
type PollingSubscriber struct {
	lister   MessageLister
	interval time.Duration
	logger   *logging.Logger
	after    func(time.Duration) <-chan time.Time
}

// NewPollingSubscriber polls lister every interval.
func NewPollingSubscriber(lister MessageLister, interval time.Duration, logger *logging.Logger) *PollingSubscriber {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PollingSubscriber{lister: lister, interval: interval, logger: logger, after: time.After}
}

// Subscribe takes a baseline of existing messages and then emits each
// message id at most once.
func (p *PollingSubscriber) Subscribe(ctx context.Context, conversationID string) (<-chan portalapi.ChatMessage, error) {
	return p.SubscribeAfter(ctx, conversationID, "")
}

// SubscribeAfter emits every message newer than afterID, starting with the
// first poll. An empty afterID behaves like Subscribe.
func (p *PollingSubscriber) SubscribeAfter(ctx context.Context, conversationID, afterID string) (<-chan portalapi.ChatMessage, error) {
	if p == nil || p.lister == nil {
		return nil, errors.New("chat: polling lister not configured")
	}
	if conversationID == "" {
		return nil, errors.New("chat: conversation id required")
	}
	out := make(chan portalapi.ChatMessage, 16)
	go p.run(ctx, conversationID, afterID, out)
	return out, nil
}

func (p *PollingSubscriber) run(ctx context.Context, conversationID, afterID string, out chan<- portalapi.ChatMessage) {
	defer close(out)

	seen := make(map[string]struct{})
	lastID := afterID
	baseline := afterID == ""
	if afterID != "" {
		seen[afterID] = struct{}{}
	}
	for {
		msgs, err := p.lister.ListMessages(ctx, conversationID, lastID)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			p.logger.Warn("chat: poll failed", "conversation_id", conversationID, "error", err)
		default:
			for _, msg := range msgs {
				if msg.ID == "" {
					continue
				}
				if _, dup := seen[msg.ID]; dup {
					continue
				}
				seen[msg.ID] = struct{}{}
				lastID = msg.ID
				if !baseline && !deliver(ctx, out, msg) {
					return
				}
			}
			baseline = false
		}

		select {
		case <-ctx.Done():
			return
		case <-p.after(p.interval):
		}
	}
}
