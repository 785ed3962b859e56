package auth

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
)

// SessionRecord mirrors the "sessions:<sid>" hash kept by the login service.
type SessionRecord struct {
	SID       string
	UserID    int64
	Role      string
	ExpiresAt time.Time
}

// Admits reports whether the session still backs claims at now. A role change
// on the session revokes tokens minted with the old role.
func (s SessionRecord) Admits(claims AccessClaims, now time.Time) bool {
	return s.UserID == claims.UserID &&
		strings.EqualFold(strings.TrimSpace(s.Role), claims.Role) &&
		now.Before(s.ExpiresAt)
}

type AccessClaims struct {
	UserID    int64
	SID       string
	Role      string
	ExpiresAt time.Time
}

func (c AccessClaims) Identity() Identity {
	return Identity{UserID: c.UserID, SID: c.SID, Role: c.Role}
}
