package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/medbook-portal/internal/notify"
	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/internal/session"
)

// PortalQueryParam selects the portal when a route serves both.
const PortalQueryParam = "portal"

// RequireSession attaches the caller's portal session and backend access
// token to the request context and rejects the request without one. A
// bearer token in Authorization takes precedence over the stored session;
// its claims are read but not verified, the backend does that. An empty
// portal is taken from the ?portal= query, defaulting to patient.
func RequireSession(store session.Store, portal session.Portal, now func() time.Time) func(http.Handler) http.Handler {
	return sessionMiddleware(store, portal, now, true)
}

// OptionalSession attaches the session when one is present and otherwise
// passes the request through unchanged.
func OptionalSession(store session.Store, portal session.Portal, now func() time.Time) func(http.Handler) http.Handler {
	return sessionMiddleware(store, portal, now, false)
}

func sessionMiddleware(store session.Store, portal session.Portal, now func() time.Time, required bool) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := portal
			if p == "" {
				var err error
				if p, err = requestPortal(r); err != nil {
					writeNotice(w, notify.ForError(notify.OpSession, err))
					return
				}
			}
			sess, err := resolveSession(r, store, p)
			if err == nil && sess.Expired(now()) {
				err = session.ErrTokenExpired
			}
			if err != nil {
				if required {
					writeNotice(w, notify.ForError(notify.OpSession, err))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := session.WithSession(r.Context(), sess)
			ctx = portalapi.WithAccessToken(ctx, sess.AccessToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestPortal(r *http.Request) (session.Portal, error) {
	raw := r.URL.Query().Get(PortalQueryParam)
	if raw == "" {
		return session.PortalPatient, nil
	}
	return session.ParsePortal(raw)
}

func resolveSession(r *http.Request, store session.Store, portal session.Portal) (*session.Session, error) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		claims, err := session.ParseClaims(token)
		if err != nil || claims.Subject == "" {
			return nil, session.ErrNotFound
		}
		return &session.Session{
			Portal:      portal,
			AccessToken: token,
			User:        session.User{ID: claims.Subject, Role: claims.Role},
		}, nil
	}
	browserID, ok := session.BrowserIDFromContext(r.Context())
	if !ok || store == nil {
		return nil, session.ErrNotFound
	}
	return store.Load(r.Context(), browserID, portal)
}
