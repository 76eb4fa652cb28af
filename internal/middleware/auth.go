package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-api/internal/authz"
	"github.com/yukikurage/team-task-api/internal/constants"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/identity"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// RequireAuth verifies the bearer token and resolves its subject once per
// request. The resolved caller is stored in the context.
func RequireAuth(tokens *utils.TokenManager, resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			apierrors.Unauthorized(c, "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			apierrors.Unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}

		ident, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			if apierrors.IsKind(err, apierrors.KindNotFound) {
				apierrors.Unauthorized(c, "User no longer exists")
				return
			}
			apierrors.Respond(c, err)
			return
		}
		if !ident.Active {
			apierrors.Forbidden(c, "User not activated by admin")
			return
		}

		c.Set(constants.ContextKeyUserID, ident.ID)
		c.Set(constants.ContextKeyCaller, authz.Caller{ID: ident.ID, Role: ident.Role})
		c.Next()
	}
}

// GetCaller retrieves the authenticated caller from context
func GetCaller(c *gin.Context) (authz.Caller, bool) {
	v, exists := c.Get(constants.ContextKeyCaller)
	if !exists {
		return authz.Caller{}, false
	}
	caller, ok := v.(authz.Caller)
	return caller, ok
}

// RequireServiceKey protects internal endpoints called by sibling services.
// An empty key disables the endpoints entirely.
func RequireServiceKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(constants.HeaderServiceKey)
		if key == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			apierrors.Unauthorized(c, "Invalid service key")
			return
		}
		c.Next()
	}
}
