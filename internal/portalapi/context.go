package portalapi

import "context"

type ctxKey string

const tokenKey ctxKey = "medbook.access_token"

// WithAccessToken stores the caller's bearer token for backend calls.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// AccessTokenFromContext extracts the bearer token if present.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}
