package middleware

import (
	"net/http"
	"strings"

	"taskboard/internal/auth"
	"taskboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UserIDKey   = "userID"
	UserRoleKey = "userRole"

	// SessionCookieName carries the session token between requests.
	SessionCookieName = "taskboard_session"
)

// JWTAuthMiddleware resolves the caller's identity from the session cookie
// (or an Authorization: Bearer header) and stores it in the request context.
// Requests without a valid identity are rejected before reaching handlers.
func JWTAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""
		if cookie, err := c.Cookie(SessionCookieName); err == nil {
			tokenStr = cookie
		} else if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			tokenStr = strings.TrimPrefix(header, "Bearer ")
		}

		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied. Please log in.",
			})
			return
		}

		identity, err := auth.ParseToken(jwtSecret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied. Please log in.",
			})
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Set(UserRoleKey, identity.Role)
		c.Next()
	}
}

// AdminOnly rejects callers whose resolved role is not admin. Must run
// after JWTAuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(UserRoleKey)
		if !exists || role != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied. Administrator privileges required.",
			})
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller resolved by JWTAuthMiddleware.
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	rawID, exists := c.Get(UserIDKey)
	if !exists {
		return auth.Identity{}, false
	}
	userID, ok := rawID.(uuid.UUID)
	if !ok {
		return auth.Identity{}, false
	}
	role, _ := c.Get(UserRoleKey)
	roleStr, _ := role.(string)
	return auth.Identity{UserID: userID, Role: roleStr}, true
}
