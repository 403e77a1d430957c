package middleware

import (
	"errors"
	"net/http"

	"github.com/Lelcaren/mwangaza-rentals/internal/auth"
	"github.com/gin-gonic/gin"
)

// Authenticate verifies the bearer token and stores the caller in the request context.
// With required false a missing token passes through anonymously; a token that is
// present but invalid is always rejected, as is any token when verifier is nil.
func Authenticate(verifier auth.Verifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if errors.Is(err, auth.ErrMissingToken) && !required {
			c.Next()
			return
		}
		if err != nil {
			unauthorized(c, "Missing or malformed bearer token")
			return
		}

		if verifier == nil {
			unauthorized(c, "Token verification is not configured")
			return
		}

		user, err := verifier.Verify(token)
		if err != nil {
			if l := GetLogger(c); l != nil {
				l.Debug("Token rejected", map[string]interface{}{"error": err.Error()})
			}
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// RequireUser rejects requests that carry no authenticated user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.CurrentUser(c.Request.Context()) == nil {
			unauthorized(c, "Authentication required")
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}
