package api

import (
	"errors"
	"net/http"
	"sort"

	"finshorts/types"
	"finshorts/workitems"

	"github.com/gin-gonic/gin"
)

// RegisterWorkItemRoutes registers work item listing endpoints.
func RegisterWorkItemRoutes(r *gin.Engine, d Deps) {
	g := r.Group("/api/workitems")
	g.GET("", listWorkItems(d.Store))
	g.GET("/:id", getWorkItem(d.Store))
}

func listWorkItems(store *workitems.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stage := types.Stage(c.Query("stage"))
		if stage != "" && !stage.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown stage " + string(stage)})
			return
		}

		items, errs := store.List()
		out := make([]*types.WorkItem, 0, len(items))
		for _, item := range items {
			if stage == "" || item.Stage == stage {
				out = append(out, item)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

		resp := gin.H{"items": out, "count": len(out)}
		if len(errs) > 0 {
			resp["unreadable"] = len(errs)
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getWorkItem(store *workitems.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := store.Load(c.Param("id"))
		if errors.Is(err, workitems.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "work item not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}
