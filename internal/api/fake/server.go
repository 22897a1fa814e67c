// Package fake has an in-process fake of the legal document backend. It serves the
// same HTTP contracts the client uses, so it can be used for tests and local development.
package fake

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
)

const (
	// SessionCookieName is the cookie that carries the session when auth is enabled.
	SessionCookieName = "session"

	defaultStepsToComplete = 2
)

// Analyzer runs the opaque analysis of a document for a job kind.
type Analyzer func(kind model.JobKind, text string, metadata map[string]any) (any, error)

// ServerConfig is the configuration of the fake backend.
type ServerConfig struct {
	// StepsToComplete is the number of polls a task reports as processing
	// before it reaches a terminal status.
	StepsToComplete int
	// SessionToken enables cookie session auth when set.
	SessionToken string
	// Analyzer produces the task results, by default a keyword based analysis.
	Analyzer Analyzer
	// PollDelay delays every result request, used to simulate slow backends.
	PollDelay time.Duration
	// FailuresInBody answers PDF processing failures with a 200 and a
	// {"success": false, "error": ...} body instead of a 422.
	FailuresInBody bool
	Logger         log.Logger
}

func (c *ServerConfig) defaults() error {
	if c.StepsToComplete < 0 {
		return fmt.Errorf("steps to complete can't be negative")
	}
	if c.StepsToComplete == 0 {
		c.StepsToComplete = defaultStepsToComplete
	}
	if c.Analyzer == nil {
		c.Analyzer = DefaultAnalyzer
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "api.FakeServer"})
	return nil
}

// Server is a fake backend.
type Server struct {
	router *gin.Engine
	tasks  *taskService
	logger log.Logger

	cfg ServerConfig

	mu      sync.Mutex
	exports []ExportRequest
	uploads []string
}

// NewServer returns a new fake backend server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		tasks:  newTaskService(cfg.StepsToComplete, cfg.Analyzer),
		logger: cfg.Logger,
		cfg:    cfg,
	}
	s.router = s.setupRoutes()

	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves the fake backend on addr until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Fake backend listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("fake backend server error: %w", err)
	case <-ctx.Done():
		s.logger.Infof("Shutting down fake backend")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("fake backend shutdown error: %w", err)
		}
		return nil
	}
}

// Polls returns the number of result requests received for a task.
func (s *Server) Polls(taskID string) int { return s.tasks.polls(taskID) }

// Exports returns the export requests received by the server.
func (s *Server) Exports() []ExportRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ExportRequest(nil), s.exports...)
}

// Uploads returns the names of the files uploaded to the server.
func (s *Server) Uploads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

func (s *Server) setupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.logMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(s.authMiddleware())
	{
		orchestrator := api.Group("/orchestrator")
		{
			orchestrator.POST("/:kind", s.handleSubmit)
			orchestrator.GET("/:kind/:taskId/result", s.handleResult)
		}

		redline := api.Group("/redline")
		{
			redline.POST("/export", s.handleExport)
			redline.POST("/upload", s.handleUpload)
		}
	}

	return router
}

func (s *Server) logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debugf("%s %s %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.SessionToken == "" {
			c.Next()
			return
		}

		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie != s.cfg.SessionToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		c.Next()
	}
}

type submitRequest struct {
	DocumentText string         `json:"documentText"`
	Metadata     map[string]any `json:"metadata"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	kind := model.JobKind(c.Param("kind"))
	if err := kind.Validate(); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %s", err)})
		return
	}
	if req.DocumentText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documentText is required"})
		return
	}

	t := s.tasks.create(kind, req.DocumentText, req.Metadata)
	s.logger.Infof("Created %s task %s", kind, t.id)

	c.JSON(http.StatusOK, gin.H{"taskId": t.id, "status": string(model.TaskStatusPending)})
}

func (s *Server) handleResult(c *gin.Context) {
	if s.cfg.PollDelay > 0 {
		select {
		case <-time.After(s.cfg.PollDelay):
		case <-c.Request.Context().Done():
			return
		}
	}

	kind := model.JobKind(c.Param("kind"))
	res, ok := s.tasks.poll(kind, c.Param("taskId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	c.JSON(http.StatusOK, res)
}
