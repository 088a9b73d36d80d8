package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/resp"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

type SubmitRestaurantRequest struct {
	Title         string               `json:"title" binding:"required,max=200"`
	Description   string               `json:"description" binding:"max=5000"`
	Address       entity.Address       `json:"address"`
	Location      entity.GeoPoint      `json:"location"`
	MainImage     string               `json:"mainImage" binding:"omitempty,url"`
	Gallery       []string             `json:"gallery" binding:"omitempty,dive,url"`
	Contact       entity.Contact       `json:"contact"`
	Cuisine       []string             `json:"cuisine"`
	Features      []string             `json:"features"`
	PriceRange    string               `json:"priceRange" binding:"price_range"`
	Menu          []entity.MenuItem    `json:"menu"`
	ContactPerson entity.ContactPerson `json:"contactPerson"`
}

type UpdateRestaurantRequest struct {
	Title       *string            `json:"title" binding:"omitempty,max=200"`
	Description *string            `json:"description" binding:"omitempty,max=5000"`
	Address     *entity.Address    `json:"address"`
	Location    *entity.GeoPoint   `json:"location"`
	MainImage   *string            `json:"mainImage" binding:"omitempty,url"`
	Gallery     *[]string          `json:"gallery"`
	Contact     *entity.Contact    `json:"contact"`
	Cuisine     *[]string          `json:"cuisine"`
	Features    *[]string          `json:"features"`
	PriceRange  *string            `json:"priceRange" binding:"omitempty,price_range"`
	Menu        *[]entity.MenuItem `json:"menu"`
}

type RestaurantController struct {
	Restaurants *services.RestaurantService
}

func NewRestaurantController(restaurants *services.RestaurantService) *RestaurantController {
	return &RestaurantController{Restaurants: restaurants}
}

// POST /restaurants (anonymous submissions allowed)
func (rc *RestaurantController) Submit(c *gin.Context) {
	var req SubmitRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	rest, err := rc.Restaurants.Submit(c.Request.Context(), utils.CurrentUserID(c), services.RestaurantInput{
		Title:         req.Title,
		Description:   req.Description,
		Address:       req.Address,
		Location:      req.Location,
		MainImage:     req.MainImage,
		Gallery:       req.Gallery,
		Contact:       req.Contact,
		Cuisine:       req.Cuisine,
		Features:      req.Features,
		PriceRange:    entity.PriceRange(req.PriceRange),
		Menu:          req.Menu,
		ContactPerson: req.ContactPerson,
	})
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, rest)
}

// GET /restaurants?city=&cuisine=&price=&q=&limit=&offset=
func (rc *RestaurantController) List(c *gin.Context) {
	rests, err := rc.Restaurants.List(c.Request.Context(), services.RestaurantQuery{
		City:    c.Query("city"),
		Cuisine: c.Query("cuisine"),
		Price:   entity.PriceRange(c.Query("price")),
		Query:   c.Query("q"),
		Page:    pageFromQuery(c),
	})
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rests)
}

// GET /restaurants/:id
func (rc *RestaurantController) Detail(c *gin.Context) {
	rest, err := rc.Restaurants.Get(c.Request.Context(), utils.CurrentUserID(c), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rest)
}

// PATCH /restaurants/:id (owner)
func (rc *RestaurantController) Update(c *gin.Context) {
	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	patch := services.RestaurantPatch{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Location:    req.Location,
		MainImage:   req.MainImage,
		Gallery:     req.Gallery,
		Contact:     req.Contact,
		Cuisine:     req.Cuisine,
		Features:    req.Features,
		Menu:        req.Menu,
	}
	if req.PriceRange != nil {
		p := entity.PriceRange(*req.PriceRange)
		patch.PriceRange = &p
	}
	rest, err := rc.Restaurants.Update(c.Request.Context(), utils.CurrentUserID(c), c.Param("id"), patch)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rest)
}

// DELETE /restaurants/:id (admin)
func (rc *RestaurantController) Delete(c *gin.Context) {
	if err := rc.Restaurants.Delete(c.Request.Context(), utils.CurrentUserID(c), c.Param("id")); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": true})
}

// GET /profile/restaurants
func (rc *RestaurantController) ListMine(c *gin.Context) {
	rests, err := rc.Restaurants.ListMine(c.Request.Context(), utils.CurrentUserID(c), pageFromQuery(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rests)
}
