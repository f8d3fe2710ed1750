package middleware

import (
	"context"

	"zamora-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Identity is the resolved (user, role) pair handed to us by the auth
// collaborator in front of this service. This package trusts the headers;
// session verification happens upstream.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleManager:
		return true
	default:
		return false
	}
}

type Identity struct {
	UserID string
	Role   Role
}

type identityKey struct{}

const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"
)

// ResolveIdentity attaches the caller identity to the request context.
// Requests without an identity pass through; role gates reject them later.
func ResolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		role := Role(c.GetHeader(HeaderRole))

		if userID == "" {
			c.Next()
			return
		}

		if !role.Valid() {
			c.Error(errutil.Unauthorized("unrecognized role", nil))
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), identityKey{}, Identity{UserID: userID, Role: role})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles.
func RequireRole(roles ...Role) gin.HandlerFunc {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c.Request.Context())
		if !ok {
			c.Error(errutil.Unauthorized("authentication required", nil))
			c.Abort()
			return
		}
		if !allowed[id.Role] {
			c.Error(errutil.Forbidden("insufficient role", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuthenticated admits any resolved identity regardless of role.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFromContext(c.Request.Context()); !ok {
			c.Error(errutil.Unauthorized("authentication required", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// ContextWithIdentity exists for tests and internal callers.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}
