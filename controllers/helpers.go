package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/services"
)

// pageFromQuery reads ?limit=&offset=; bad values fall back to defaults.
func pageFromQuery(c *gin.Context) services.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return services.Page{Limit: limit, Offset: offset}.Normalize()
}
