package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/medbook-portal/internal/notify"
	"github.com/wolfman30/medbook-portal/internal/session"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// SessionHandler stores the tokens the front end receives at login.
type SessionHandler struct {
	store   session.Store
	onClear func(browserID string, portal session.Portal)
	logger  *logging.Logger
}

// NewSessionHandler creates a session handler. onClear, when set, runs after
// a logout so per-browser state can be released.
func NewSessionHandler(store session.Store, onClear func(browserID string, portal session.Portal), logger *logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionHandler{store: store, onClear: onClear, logger: logger}
}

type saveSessionRequest struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         session.User `json:"user"`
}

type sessionResponse struct {
	Portal    session.Portal `json:"portal"`
	User      session.User   `json:"user"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	resp := sessionResponse{Portal: s.Portal, User: s.User}
	if claims, err := session.ParseClaims(s.AccessToken); err == nil && !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt.UTC()
		resp.ExpiresAt = &exp
	}
	return resp
}

func (h *SessionHandler) target(w http.ResponseWriter, r *http.Request) (string, session.Portal, bool) {
	portal, err := session.ParsePortal(chi.URLParam(r, "portal"))
	if err != nil {
		writeNotice(w, notify.ForError(notify.OpSession, err))
		return "", "", false
	}
	id, err := browserID(r)
	if err != nil {
		badRequest(w, "Thiếu định danh trình duyệt")
		return "", "", false
	}
	return id, portal, true
}

// Save handles POST /api/session/{portal}.
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	id, portal, ok := h.target(w, r)
	if !ok {
		return
	}
	var req saveSessionRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.AccessToken) == "" {
		badRequest(w, "Thông tin đăng nhập không hợp lệ")
		return
	}
	sess := session.Session{
		Portal:       portal,
		AccessToken:  strings.TrimSpace(req.AccessToken),
		RefreshToken: req.RefreshToken,
		User:         req.User,
	}
	if claims, err := session.ParseClaims(sess.AccessToken); err == nil {
		if sess.User.ID == "" {
			sess.User.ID = claims.Subject
		}
		if sess.User.Role == "" {
			sess.User.Role = claims.Role
		}
	}
	if err := h.store.Save(r.Context(), id, sess); err != nil {
		h.logger.Warn("session save failed", "browser_id", id, "portal", portal, "error", err)
		writeNotice(w, notify.ForError(notify.OpSession, err))
		return
	}
	h.logger.Info("session saved", "browser_id", id, "portal", portal, "user_id", sess.User.ID)
	writeJSON(w, http.StatusOK, toSessionResponse(&sess))
}

// Get handles GET /api/session/{portal}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, portal, ok := h.target(w, r)
	if !ok {
		return
	}
	sess, err := h.store.Load(r.Context(), id, portal)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			h.logger.Warn("session load failed", "browser_id", id, "portal", portal, "error", err)
		}
		writeNotice(w, notify.ForError(notify.OpSession, err))
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// Delete handles DELETE /api/session/{portal}. The other portal's session
// is left alone.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, portal, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id, portal); err != nil {
		h.logger.Warn("session delete failed", "browser_id", id, "portal", portal, "error", err)
		writeNotice(w, notify.ForError(notify.OpSession, err))
		return
	}
	if h.onClear != nil {
		h.onClear(id, portal)
	}
	w.WriteHeader(http.StatusNoContent)
}
