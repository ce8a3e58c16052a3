package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wear-and-tear-backend/internal/model"
	"wear-and-tear-backend/internal/wear"
)

// itemStatusResponse is a stored wear level as returned by the API.
type itemStatusResponse struct {
	ItemID     string     `json:"itemId"`
	ConfigID   string     `json:"configId"`
	Name       string     `json:"name"`
	Level      wear.Level `json:"level"`
	Usage      float64    `json:"usage"`
	Remaining  float64    `json:"remaining"`
	ObservedAt string     `json:"observedAt"`
}

// GetStoredStatuses handles GET /api/configs/{config_id}/statuses, the wear
// levels recorded by the last monitor cycle. ?level= narrows the result.
func GetStoredStatuses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.WithContext(c.Request.Context()).Where("config_id = ?", c.Param("config_id"))
		if level := c.Query("level"); level != "" {
			if wear.Level(level).Severity() == 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid level"})
				return
			}
			query = query.Where("level = ?", level)
		}

		var rows []model.ItemStatus
		if err := query.Order("item_id").Find(&rows).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve item statuses"})
			return
		}

		response := make([]itemStatusResponse, 0, len(rows))
		for _, row := range rows {
			response = append(response, itemStatusResponse{
				ItemID:     row.ItemID,
				ConfigID:   row.ConfigID,
				Name:       row.Name,
				Level:      wear.Level(row.Level),
				Usage:      row.Usage,
				Remaining:  row.Remaining,
				ObservedAt: row.ObservedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			})
		}
		c.JSON(http.StatusOK, response)
	}
}
