package api

import (
	"net/http"

	"finshorts/deduplication"

	"github.com/gin-gonic/gin"
)

// RegisterUploadRoutes registers the upload record endpoint.
func RegisterUploadRoutes(r *gin.Engine, d Deps) {
	r.GET("/api/uploads", listUploads(d.Uploads))
}

func listUploads(uploads deduplication.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := uploads.Entries(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if entries == nil {
			entries = []deduplication.Entry{}
		}
		c.JSON(http.StatusOK, gin.H{"uploads": entries, "count": len(entries)})
	}
}
