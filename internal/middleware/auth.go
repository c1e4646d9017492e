package middleware

import (
	"net/http"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/apperrors"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/services"

	"github.com/gin-gonic/gin"
)

// JWTAuth requires a valid bearer token and stores the resolved identity in
// the context. Expired, malformed, missing and orphaned tokens each surface
// their own message.
func JWTAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authService.VerifyBearer(c.GetHeader("Authorization"))
		if err != nil {
			if apperrors.IsAuthError(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error during authentication"})
			}
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalAuth resolves the identity if a valid bearer token is present and
// proceeds anonymously on any failure. Used by public read paths that only
// need identity to unlock creator-only visibility.
func OptionalAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authService.VerifyBearer(c.GetHeader("Authorization"))
		if err == nil {
			c.Set("user_id", user.ID)
			c.Set("user", user)
		}
		c.Next()
	}
}
