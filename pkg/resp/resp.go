package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": data})
}
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": msg})
}
func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": msg})
}
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": msg})
}
func Conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, gin.H{"ok": false, "error": msg})
}

// ServerError logs the cause and answers with a generic message.
func ServerError(c *gin.Context, err error) {
	logging.Ctx(c.Request.Context()).Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": services.PublicMessage(err)})
}

// StatusFor maps a service error kind to an HTTP status.
func StatusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err in the envelope with the status of its kind.
func Error(c *gin.Context, err error) {
	kind := services.KindOf(err)
	if kind == services.KindBackend {
		ServerError(c, err)
		return
	}
	c.JSON(StatusFor(kind), gin.H{"ok": false, "error": services.PublicMessage(err)})
}
