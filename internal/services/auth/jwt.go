package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
)

const (
	defaultAccessTTL = 15 * time.Minute
	clockLeeway      = 5 * time.Second
)

// JWTManager signs and parses the HS256 access tokens shared with the login
// service. The subject is the numeric user id; sid and role are private claims.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

type tokenClaims struct {
	SID  string `json:"sid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}

	return &JWTManager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// GenerateAccessToken mints a token the way the login service does. The engine
// itself only parses tokens; this is used by tests and local tooling.
func (m *JWTManager) GenerateAccessToken(userID int64, sid, role string) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	}
	parsedRole, ok := enums.ParseRole(role)
	if userID <= 0 || strings.TrimSpace(sid) == "" || !ok {
		return "", time.Time{}, fmt.Errorf("invalid access token payload")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.accessTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		SID:  sid,
		Role: string(parsedRole),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken verifies the signature and expiry and returns the claims
// with the role normalized. Tokens carrying an unknown role are rejected.
func (m *JWTManager) ParseAccessToken(raw string) (AccessClaims, error) {
	if strings.TrimSpace(raw) == "" || len(m.secret) == 0 {
		return AccessClaims{}, ErrUnauthorized
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(m.now),
		jwt.WithLeeway(clockLeeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil || token == nil || !token.Valid {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims.toAccessClaims()
}

func (c *tokenClaims) toAccessClaims() (AccessClaims, error) {
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return AccessClaims{}, ErrUnauthorized
	}
	sid := strings.TrimSpace(c.SID)
	if sid == "" {
		return AccessClaims{}, ErrUnauthorized
	}
	role, ok := enums.ParseRole(c.Role)
	if !ok {
		return AccessClaims{}, ErrUnauthorized
	}

	var expiresAt time.Time
	if c.ExpiresAt != nil {
		expiresAt = c.ExpiresAt.Time
	}
	return AccessClaims{
		UserID:    userID,
		SID:       sid,
		Role:      string(role),
		ExpiresAt: expiresAt,
	}, nil
}
