package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/pkg/resp"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

type NotificationController struct {
	Notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

// GET /notifications?unread=true
func (nc *NotificationController) List(c *gin.Context) {
	items, err := nc.Notifications.List(c.Request.Context(), utils.CurrentUserID(c), c.Query("unread") == "true", pageFromQuery(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, items)
}

// PATCH /notifications/:id/read
func (nc *NotificationController) MarkRead(c *gin.Context) {
	if err := nc.Notifications.MarkRead(c.Request.Context(), utils.CurrentUserID(c), c.Param("id")); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"read": true})
}

// POST /notifications/read-all
func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	n, err := nc.Notifications.MarkAllRead(c.Request.Context(), utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"updated": n})
}
