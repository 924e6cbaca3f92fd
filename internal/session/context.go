package session

import "context"

type ctxKey string

const (
	browserKey ctxKey = "medbook.browser_id"
	sessionKey ctxKey = "medbook.session"
)

// WithBrowserID stores the browser id in context.
func WithBrowserID(ctx context.Context, browserID string) context.Context {
	return context.WithValue(ctx, browserKey, browserID)
}

// BrowserIDFromContext extracts the browser id if present.
func BrowserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(browserKey).(string)
	return id, ok && id != ""
}

// WithSession stores the active session in context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session attached by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}
