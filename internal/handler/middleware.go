package handler

import (
	"net/http"
	"strings"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userId"
	ctxRole   = "role"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity on the gin context for the handlers downstream.
func RequireAuth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header required",
			})
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header must be a bearer token",
			})
			return
		}

		claims, err := verifier.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token",
			})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// callerID returns the authenticated user id established by RequireAuth.
func callerID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
