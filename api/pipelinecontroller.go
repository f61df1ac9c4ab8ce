package api

import (
	"context"
	"errors"
	"net/http"

	"finshorts/orchestrator"

	"github.com/gin-gonic/gin"
)

// RegisterPipelineRoutes registers pipeline run endpoints.
func RegisterPipelineRoutes(r *gin.Engine, d Deps) {
	g := r.Group("/api/pipeline")
	g.POST("/run", handleRun(d.Runner))
	g.GET("/last", handleLast(d.State))
	g.GET("/status", handleStatus(d.State))
}

// handleRun starts a run asynchronously and returns 202 Accepted, or 409
// when another run holds the lock.
func handleRun(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The run outlives the request.
		runID, err := runner.Start(context.Background())
		if errors.Is(err, orchestrator.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "run started", "run_id": runID})
	}
}

func handleLast(state *orchestrator.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		last := state.Last()
		if last == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run has finished yet"})
			return
		}
		c.JSON(http.StatusOK, last)
	}
}

func handleStatus(state *orchestrator.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, state.Status())
	}
}
