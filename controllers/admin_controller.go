package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/resp"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

type AdminController struct {
	Roles *services.RoleService
}

func NewAdminController(roles *services.RoleService) *AdminController {
	return &AdminController{Roles: roles}
}

type UsersQuery struct {
	Role string `form:"role" binding:"omitempty,role"`
}

// GET /admin/users?role=
func (ac *AdminController) Users(c *gin.Context) {
	var q UsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.BadRequest(c, "unknown role")
		return
	}
	users, err := ac.Roles.ListUsers(c.Request.Context(), utils.CurrentUserID(c), entity.Role(q.Role), pageFromQuery(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, users)
}
