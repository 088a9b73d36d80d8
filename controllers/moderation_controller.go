package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/resp"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

type ModerationController struct {
	Moderation *services.ModerationService
}

func NewModerationController(moderation *services.ModerationService) *ModerationController {
	return &ModerationController{Moderation: moderation}
}

type ModerationQueueQuery struct {
	Status string `form:"status" binding:"omitempty,moderation_status"`
}

// GET /moderation/restaurants?status=pending
func (mc *ModerationController) Queue(c *gin.Context) {
	var q ModerationQueueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.BadRequest(c, "status must be one of approved, rejected, pending")
		return
	}
	rests, err := mc.Moderation.Queue(c.Request.Context(), utils.CurrentUserID(c), entity.ModerationStatus(q.Status), pageFromQuery(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rests)
}

// GET /moderation/actions?restaurantId=
func (mc *ModerationController) History(c *gin.Context) {
	actions, err := mc.Moderation.History(c.Request.Context(), utils.CurrentUserID(c), c.Query("restaurantId"), pageFromQuery(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, actions)
}
