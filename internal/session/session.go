// Package session keeps per-browser login state for the patient and doctor
// portals.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotFound is returned when no session is stored for a browser/portal pair.
	ErrNotFound = errors.New("session: not found")
	// ErrUnknownPortal is returned for portal names other than patient or doctor.
	ErrUnknownPortal = errors.New("session: unknown portal")
	// ErrTokenExpired is returned when saving a session whose access token has expired.
	ErrTokenExpired = errors.New("session: access token expired")
)

// Portal names one of the two independent logins a browser can hold.
type Portal string

const (
	PortalPatient Portal = "patient"
	PortalDoctor  Portal = "doctor"
)

// ParsePortal validates a portal name.
func ParsePortal(raw string) (Portal, error) {
	switch p := Portal(strings.ToLower(strings.TrimSpace(raw))); p {
	case PortalPatient, PortalDoctor:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPortal, raw)
	}
}

// User is the logged-in account as returned by the backend login call.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is one portal login.
type Session struct {
	Portal       Portal    `json:"portal"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	User         User      `json:"user"`
	SavedAt      time.Time `json:"savedAt"`
}

// Store persists sessions keyed by browser id and portal. Writes are last
// write wins.
type Store interface {
	Save(ctx context.Context, browserID string, s Session) error
	Load(ctx context.Context, browserID string, portal Portal) (*Session, error)
	Delete(ctx context.Context, browserID string, portal Portal) error
}

// Claims are the fields the portal reads from an access token.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

type accessClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseClaims reads claims from token without verifying its signature. The
// backend verifies tokens on every call; the portal only needs expiry and
// subject.
func ParseClaims(token string) (Claims, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("session: parse token: %w", err)
	}
	out := Claims{Subject: claims.Subject, Role: claims.Role}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Expired reports whether the access token carries an expiry before now.
// Tokens without a readable expiry never expire here.
func (s Session) Expired(now time.Time) bool {
	claims, err := ParseClaims(s.AccessToken)
	if err != nil || claims.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(claims.ExpiresAt)
}

// lifetime bounds ttl by the token's remaining validity.
func lifetime(s Session, ttl time.Duration, now time.Time) (time.Duration, error) {
	claims, err := ParseClaims(s.AccessToken)
	if err != nil || claims.ExpiresAt.IsZero() {
		return ttl, nil
	}
	left := claims.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0, ErrTokenExpired
	}
	if ttl <= 0 || left < ttl {
		return left, nil
	}
	return ttl, nil
}

func validate(browserID string, s Session) error {
	if strings.TrimSpace(browserID) == "" {
		return errors.New("session: browser id required")
	}
	if _, err := ParsePortal(string(s.Portal)); err != nil {
		return err
	}
	if strings.TrimSpace(s.AccessToken) == "" {
		return errors.New("session: access token required")
	}
	return nil
}
