package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/identity"
)

// WSAuthMiddleware reads the token from ?token= first, since browsers cannot
// set headers on a websocket handshake, then from the Authorization header.
func WSAuthMiddleware(p identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := c.Query("token")
		if tok == "" {
			tok = bearerToken(c)
		}
		if err := authenticate(c, p, tok); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}
		c.Next()
	}
}
