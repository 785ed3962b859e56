package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
	authsvc "github.com/ivankudzin/eventmatch/backend/internal/services/auth"
)

const (
	sessionPrefix = "sessions:"

	sessionFieldUserID    = "user_id"
	sessionFieldRole      = "role"
	sessionFieldExpiresAt = "expires_at"
)

// SessionRepo reads the session hashes written by the login service.
type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}

	values, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get session hash: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}

	session, err := parseSessionRecord(values)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}
	session.SID = sid
	return session, nil
}

// parseSessionRecord validates the hash fields. A missing role reads as a
// plain attendee; an unknown role rejects the session.
func parseSessionRecord(values map[string]string) (authsvc.SessionRecord, error) {
	userID, err := strconv.ParseInt(values[sessionFieldUserID], 10, 64)
	if err != nil || userID <= 0 {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}

	expiresUnix, err := strconv.ParseInt(values[sessionFieldExpiresAt], 10, 64)
	if err != nil || expiresUnix <= 0 {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}

	role := enums.RoleUser
	if raw := strings.TrimSpace(values[sessionFieldRole]); raw != "" {
		parsed, ok := enums.ParseRole(raw)
		if !ok {
			return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
		}
		role = parsed
	}

	return authsvc.SessionRecord{
		UserID:    userID,
		Role:      string(role),
		ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
	}, nil
}

func sessionKey(sid string) string {
	return sessionPrefix + sid
}
