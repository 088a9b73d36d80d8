package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/resp"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"displayName" binding:"required"`
	Username    string `json:"username"`
	City        string `json:"city"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateMeRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,max=100"`
	Username    *string `json:"username" binding:"omitempty,max=50"`
	City        *string `json:"city" binding:"omitempty,max=100"`
	AvatarURL   *string `json:"avatarUrl" binding:"omitempty,url"`
}

type AuthController struct {
	Auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{Auth: auth}
}

// POST /auth/register
func (a *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	user, err := a.Auth.Register(c.Request.Context(), services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Username:    req.Username,
		City:        req.City,
	})
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, user)
}

// POST /auth/login
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	token, user, err := a.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"token": token, "user": user})
}

// GET /auth/me
func (a *AuthController) Me(c *gin.Context) {
	p, _ := c.Get(utils.CtxPrincipal)
	principal, _ := p.(*identity.Principal)
	user, err := a.Auth.Me(c.Request.Context(), principal)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, user)
}

// PATCH /auth/me
func (a *AuthController) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	user, err := a.Auth.UpdateProfile(c.Request.Context(), utils.CurrentUserID(c), services.ProfilePatch{
		DisplayName: req.DisplayName,
		Username:    req.Username,
		City:        req.City,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, user)
}
