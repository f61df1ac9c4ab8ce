package api

import (
	"net/http"

	"finshorts/types"

	"github.com/gin-gonic/gin"
)

// RegisterNewsRoutes registers POST /api/news for externally submitted entries.
func RegisterNewsRoutes(r *gin.Engine, d Deps) {
	r.POST("/api/news", handleSubmitNews(d.Submit))
}

type submitNewsRequest struct {
	Title    string `json:"title" binding:"required"`
	URL      string `json:"url"`
	Summary  string `json:"summary" binding:"required"`
	Source   string `json:"source"`
	Category string `json:"category"`
}

// handleSubmitNews runs the entry through the same gates as feed entries.
// A new entry returns 201 with its work item; anything else 200 with
// created=false.
func handleSubmitNews(submit Submitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitNewsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item, created, err := submit.Submit(c.Request.Context(), &types.NewsItem{
			Title:    req.Title,
			URL:      req.URL,
			Summary:  req.Summary,
			Source:   req.Source,
			Category: req.Category,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !created {
			c.JSON(http.StatusOK, gin.H{"created": false})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"created": true, "work_item": item})
	}
}
