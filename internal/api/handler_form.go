package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wear-and-tear-backend/internal/form"
)

// GetForm handles GET /api/form?editing=&startingPoint=. The starting point
// group is included unless startingPoint=false.
func (h *Handler) GetForm(c *gin.Context) {
	editing, err := boolQuery(c, "editing", false)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid editing flag"})
		return
	}
	startingPoint, err := boolQuery(c, "startingPoint", true)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid startingPoint flag"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inputs": form.BuildInputs(h.tr, editing, startingPoint, h.now(), h.loc)})
}

func boolQuery(c *gin.Context, key string, fallback bool) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseBool(raw)
}
