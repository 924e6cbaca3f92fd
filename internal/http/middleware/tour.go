package middleware

import (
	"net/http"

	"github.com/wolfman30/medbook-portal/internal/session"
	"github.com/wolfman30/medbook-portal/internal/tour"
)

// Tour attaches the browser's tour controller to the request context. It
// must run after BrowserID.
func Tour(registry *tour.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			browserID, _ := session.BrowserIDFromContext(r.Context())
			ctx := tour.WithController(r.Context(), registry.Get(browserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
