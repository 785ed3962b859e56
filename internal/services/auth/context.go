package auth

import (
	"context"
	"strings"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
)

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

// Identity is the viewer resolved from the access token.
type Identity struct {
	UserID int64
	SID    string
	Role   string
}

func (i Identity) HasRole(role enums.Role) bool {
	return strings.EqualFold(strings.TrimSpace(i.Role), string(role))
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
