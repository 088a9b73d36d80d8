package utils

import "github.com/gin-gonic/gin"

// context keys set by the auth middlewares
const (
	CtxUserID = "userId"
	CtxRole   = "role"
	CtxEmail  = "email"

	// *identity.Principal of the verified caller
	CtxPrincipal = "principal"
)

// CurrentUserID is "" for anonymous requests.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

func CurrentRole(c *gin.Context) string {
	return c.GetString(CtxRole)
}

func CurrentEmail(c *gin.Context) string {
	return c.GetString(CtxEmail)
}
