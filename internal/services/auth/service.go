package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SessionStore is backed by the login service's session hashes. Sessions are
// issued elsewhere; this service only checks them.
type SessionStore interface {
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
}

type Service struct {
	jwt      *JWTManager
	sessions SessionStore
	now      func() time.Time
}

func NewService(jwtManager *JWTManager, sessions SessionStore) *Service {
	return &Service{
		jwt:      jwtManager,
		sessions: sessions,
		now:      time.Now,
	}
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	if s.jwt == nil {
		return AccessClaims{}, fmt.Errorf("jwt manager is not configured")
	}

	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.sessions == nil {
		return claims, nil
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrUnauthorized) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if !session.Admits(claims, s.now()) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}
