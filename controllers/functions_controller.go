package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

// FunctionsController serves the privileged operations over the callable
// protocol: POST {"data": {...}} answered with {"result": {...}} or
// {"error": {"status", "message"}}.
type FunctionsController struct {
	Roles      *services.RoleService
	Moderation *services.ModerationService
	Bootstrap  *services.BootstrapService
	Timeout    time.Duration
}

func NewFunctionsController(roles *services.RoleService, moderation *services.ModerationService, bootstrap *services.BootstrapService, timeout time.Duration) *FunctionsController {
	return &FunctionsController{Roles: roles, Moderation: moderation, Bootstrap: bootstrap, Timeout: timeout}
}

type callableRequest[T any] struct {
	Data T `json:"data"`
}

type CallableResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SetUserRoleData struct {
	UserID  string `json:"userId"`
	NewRole string `json:"newRole"`
}

type ModerateRestaurantData struct {
	RestaurantID string  `json:"restaurantId"`
	Status       string  `json:"status"`
	Comments     *string `json:"comments"`
}

// callableStatus maps an error kind to the HTTP code and protocol status.
func callableStatus(kind services.ErrorKind) (int, string) {
	switch kind {
	case services.KindUnauthenticated:
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case services.KindForbidden:
		return http.StatusForbidden, "PERMISSION_DENIED"
	case services.KindValidation:
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case services.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case services.KindConflict:
		return http.StatusBadRequest, "FAILED_PRECONDITION"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func callableError(c *gin.Context, fn string, err error) {
	kind := services.KindOf(err)
	if kind == services.KindBackend {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("function", fn).Msg("function failed")
	}
	code, status := callableStatus(kind)
	c.JSON(code, gin.H{"error": gin.H{"status": status, "message": services.PublicMessage(err)}})
}

func callableOK(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"result": CallableResult{Success: true, Message: msg}})
}

func (f *FunctionsController) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	if f.Timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), f.Timeout)
}

// POST /functions/setUserRole
func (f *FunctionsController) SetUserRole(c *gin.Context) {
	var req callableRequest[SetUserRoleData]
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"status": "INVALID_ARGUMENT", "message": "request body must be {\"data\": {...}}"}})
		return
	}
	ctx, cancel := f.withTimeout(c)
	defer cancel()

	msg, err := f.Roles.SetUserRole(ctx, utils.CurrentUserID(c), req.Data.UserID, entity.Role(req.Data.NewRole))
	if err != nil {
		callableError(c, "setUserRole", err)
		return
	}
	callableOK(c, msg)
}

// POST /functions/moderateRestaurant
func (f *FunctionsController) ModerateRestaurant(c *gin.Context) {
	var req callableRequest[ModerateRestaurantData]
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"status": "INVALID_ARGUMENT", "message": "request body must be {\"data\": {...}}"}})
		return
	}
	ctx, cancel := f.withTimeout(c)
	defer cancel()

	res, err := f.Moderation.Moderate(ctx, utils.CurrentUserID(c), services.ModerateInput{
		RestaurantID: req.Data.RestaurantID,
		Status:       entity.ModerationStatus(req.Data.Status),
		Comments:     req.Data.Comments,
	})
	if err != nil {
		callableError(c, "moderateRestaurant", err)
		return
	}
	callableOK(c, res.Message)
}

// GET /functions/createInitialAdmin?key=&email=
// Answers in plain text.
func (f *FunctionsController) CreateInitialAdmin(c *gin.Context) {
	ctx, cancel := f.withTimeout(c)
	defer cancel()

	msg, err := f.Bootstrap.CreateInitialAdmin(ctx, c.Query("key"), c.Query("email"))
	if err == nil {
		c.String(http.StatusOK, msg)
		return
	}

	switch services.KindOf(err) {
	case services.KindForbidden:
		c.String(http.StatusForbidden, "Forbidden: "+services.PublicMessage(err))
	case services.KindValidation, services.KindNotFound:
		c.String(http.StatusBadRequest, services.PublicMessage(err))
	default:
		logging.Ctx(ctx).Error().Err(err).Str("function", "createInitialAdmin").Msg("function failed")
		c.String(http.StatusInternalServerError, "Error: "+services.PublicMessage(err))
	}
}
