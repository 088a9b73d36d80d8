package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

var errNoToken = errors.New("missing token")

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// authenticate verifies tok and stores the caller on the gin context.
func authenticate(c *gin.Context, p identity.Provider, tok string) error {
	if tok == "" {
		return errNoToken
	}
	principal, err := p.VerifyToken(c.Request.Context(), tok)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidToken) {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("token verification failed")
		}
		return err
	}
	c.Set(utils.CtxUserID, principal.UID)
	c.Set(utils.CtxRole, string(principal.Role))
	c.Set(utils.CtxEmail, principal.Email)
	c.Set(utils.CtxPrincipal, principal)
	return nil
}

// AuthMiddleware requires a valid bearer token. Roles are checked by the
// services against the stored role, not here.
func AuthMiddleware(p identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c, p, bearerToken(c)); err != nil {
			msg := "invalid token"
			if errors.Is(err, errNoToken) {
				msg = "missing or invalid token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": msg})
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through but still rejects a token
// that does not verify.
func OptionalAuth(p identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			c.Next()
			return
		}
		if err := authenticate(c, p, tok); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}
		c.Next()
	}
}

// CallableAuth is OptionalAuth for the callable function protocol, which
// reports errors as {"error":{"status","message"}}.
func CallableAuth(p identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			c.Next()
			return
		}
		if err := authenticate(c, p, tok); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"status":  "UNAUTHENTICATED",
				"message": "invalid token",
			}})
			return
		}
		c.Next()
	}
}
