package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Authenticator reports whether requests may reach guarded routes.
type Authenticator interface {
	IsAuthenticated() bool
}

// RequireAuth rejects requests with 401 while nobody is signed in.
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}
