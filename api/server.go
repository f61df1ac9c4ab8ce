// Package api serves the pipeline's HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finshorts/deduplication"
	"finshorts/orchestrator"
	"finshorts/types"
	"finshorts/workitems"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// Runner starts a pipeline run in the background.
type Runner interface {
	Start(ctx context.Context) (string, error)
}

// Submitter ingests one externally supplied news entry.
type Submitter interface {
	Submit(ctx context.Context, entry *types.NewsItem) (*types.WorkItem, bool, error)
}

// Deps are the components the handlers read from.
type Deps struct {
	Runner  Runner
	Submit  Submitter // nil disables POST /api/news
	Store   *workitems.Store
	Uploads deduplication.Store
	State   *orchestrator.Manager
	Logger  *slog.Logger
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger))

	RegisterHealthRoutes(r)
	RegisterWorkItemRoutes(r, d)
	RegisterPipelineRoutes(r, d)
	RegisterUploadRoutes(r, d)
	if d.Submit != nil {
		RegisterNewsRoutes(r, d)
	}
	return r
}

// RegisterHealthRoutes registers GET /api/health.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger != nil {
			logger.Debug("http request", "component", "api", "method", c.Request.Method,
				"path", c.FullPath(), "status", c.Writer.Status(), "duration", time.Since(start))
		}
	}
}

// Server is the HTTP server plus the optional run schedule.
type Server struct {
	httpServer *http.Server
	runner     Runner
	logger     *slog.Logger
	cron       *cron.Cron
	mu         sync.Mutex
}

// NewServer wraps the router in an http.Server listening on port.
func NewServer(d Deps, port int) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(d),
			ReadHeaderTimeout: 10 * time.Second,
		},
		runner: d.Runner,
		logger: d.Logger.With("component", "api"),
		cron:   cron.New(),
	}
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("api listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartCron schedules pipeline runs. A run still holding the lock when the
// next tick fires causes that tick to be skipped.
func (s *Server) StartCron(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.cron.AddFunc(schedule, func() {
		runID, err := s.runner.Start(ctx)
		switch {
		case errors.Is(err, orchestrator.ErrRunInProgress):
			s.logger.Info("scheduled run skipped: pipeline busy")
		case err != nil:
			s.logger.Error("scheduled run failed to start", "error", err)
		default:
			s.logger.Info("scheduled run started", "run_id", runID)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("run schedule active", "schedule", schedule)
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	return s.httpServer.Shutdown(ctx)
}
