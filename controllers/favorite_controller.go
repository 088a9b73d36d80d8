package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/pkg/resp"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

type FavoriteController struct {
	Favorites *services.FavoriteService
}

func NewFavoriteController(favorites *services.FavoriteService) *FavoriteController {
	return &FavoriteController{Favorites: favorites}
}

// POST /restaurants/:id/like toggles the caller's like.
func (fc *FavoriteController) Toggle(c *gin.Context) {
	res, err := fc.Favorites.Toggle(c.Request.Context(), utils.CurrentUserID(c), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, res)
}

// GET /profile/favorites
func (fc *FavoriteController) List(c *gin.Context) {
	rests, err := fc.Favorites.List(c.Request.Context(), utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rests)
}
