package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/pkg/resp"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

type CreateReviewRequest struct {
	Rating    int        `json:"rating" binding:"required,min=1,max=5"`
	Content   string     `json:"content" binding:"max=5000"`
	VisitDate *time.Time `json:"visitDate"`
}

type UpdateReviewRequest struct {
	Rating    *int       `json:"rating" binding:"omitempty,min=1,max=5"`
	Content   *string    `json:"content" binding:"omitempty,max=5000"`
	VisitDate *time.Time `json:"visitDate"`
}

type ReviewController struct {
	Reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{Reviews: reviews}
}

// POST /restaurants/:id/reviews
func (rc *ReviewController) Create(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	rev, err := rc.Reviews.Create(c.Request.Context(), utils.CurrentUserID(c), c.Param("id"), services.ReviewInput{
		Rating:    req.Rating,
		Content:   req.Content,
		VisitDate: req.VisitDate,
	})
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, rev)
}

// GET /restaurants/:id/reviews
func (rc *ReviewController) ListForRestaurant(c *gin.Context) {
	reviews, err := rc.Reviews.ListForRestaurant(c.Request.Context(), c.Param("id"), pageFromQuery(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, reviews)
}

// PATCH /reviews/:id
func (rc *ReviewController) Update(c *gin.Context) {
	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	rev, err := rc.Reviews.Update(c.Request.Context(), utils.CurrentUserID(c), c.Param("id"), services.ReviewPatch{
		Rating:    req.Rating,
		Content:   req.Content,
		VisitDate: req.VisitDate,
	})
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rev)
}

// DELETE /reviews/:id
func (rc *ReviewController) Delete(c *gin.Context) {
	if err := rc.Reviews.Delete(c.Request.Context(), utils.CurrentUserID(c), c.Param("id")); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": true})
}

// POST /reviews/:id/helpful
func (rc *ReviewController) Helpful(c *gin.Context) {
	if err := rc.Reviews.MarkHelpful(c.Request.Context(), utils.CurrentUserID(c), c.Param("id")); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"helpful": true})
}

// POST /reviews/:id/hide
func (rc *ReviewController) Hide(c *gin.Context) {
	rev, err := rc.Reviews.Hide(c.Request.Context(), utils.CurrentUserID(c), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rev)
}

// GET /profile/reviews
func (rc *ReviewController) ListMine(c *gin.Context) {
	reviews, err := rc.Reviews.ListMine(c.Request.Context(), utils.CurrentUserID(c), pageFromQuery(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, reviews)
}
