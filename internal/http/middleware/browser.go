package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/medbook-portal/internal/session"
)

const (
	// BrowserIDHeader identifies the browser across portal logins.
	BrowserIDHeader = "X-Browser-ID"
	// BrowserIDCookie carries the browser id when the header is absent.
	BrowserIDCookie = "mb_browser"

	browserCookieMaxAge = 365 * 24 * time.Hour
)

var browserIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// BrowserID resolves the caller's browser id from the header or cookie,
// issuing a new one when neither holds a valid id.
func BrowserID(secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(BrowserIDHeader)
			if !browserIDPattern.MatchString(id) {
				id = ""
				if c, err := r.Cookie(BrowserIDCookie); err == nil && browserIDPattern.MatchString(c.Value) {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     BrowserIDCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(browserCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(BrowserIDHeader, id)
			next.ServeHTTP(w, r.WithContext(session.WithBrowserID(r.Context(), id)))
		})
	}
}
