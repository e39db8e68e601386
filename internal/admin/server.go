// Package admin exposes the generation pipeline over HTTP: start, watch,
// and cancel workflow runs, or scan the source directory directly without
// queueing one.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ahrav/go-quizgen/internal/config"
	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/engine"
	"github.com/ahrav/go-quizgen/internal/scan"
)

// scanPreviewLimit caps the queue items echoed by the scan endpoint.
const scanPreviewLimit = 20

// Runner drives generation runs. *engine.Engine satisfies it.
type Runner interface {
	Start(ctx context.Context, req domain.GenerationRequest) (*engine.RunHandle, error)
	Progress(ctx context.Context) (*domain.ProgressSnapshot, error)
	Cancel(ctx context.Context) error
}

// DirectScanner runs a scan without starting a workflow. *scan.Scanner
// satisfies it.
type DirectScanner interface {
	Scan(ctx context.Context) (*scan.ScanResult, error)
}

// Server is the admin HTTP service.
type Server struct {
	runner          Runner
	scanner         DirectScanner
	addr            string
	shutdownTimeout time.Duration
	itemDelay       time.Duration
	logger          *slog.Logger
}

// New assembles the admin service from configuration and its two
// collaborators.
func New(cfg *config.Config, runner Runner, scanner DirectScanner, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("admin: config is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("admin: runner is required")
	}
	if scanner == nil {
		return nil, fmt.Errorf("admin: scanner is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner:          runner,
		scanner:         scanner,
		addr:            cfg.Admin.Addr,
		shutdownTimeout: cfg.Admin.ShutdownTimeout,
		itemDelay:       cfg.Pipeline.ItemDelay,
		logger:          logger.With("component", "admin"),
	}, nil
}

// Router builds the gin engine with the service's routes and middleware.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(RequestID())
	router.Use(Recovery(s.logger))
	router.Use(RequestLogger(s.logger))

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api/v1")
	{
		api.POST("/scan", s.handleScan)
		api.POST("/workflow/start", s.handleStart)
		api.GET("/workflow/progress", s.handleProgress)
		api.POST("/workflow/cancel", s.handleCancel)
	}

	return router
}

// Run serves until ctx ends, then drains in-flight requests within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin service listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("admin service: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin service shutdown: %w", err)
	}
	s.logger.Info("admin service stopped")
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleScan runs the scanner directly. Nothing is generated; the response
// previews what a workflow run would pick up.
func (s *Server) handleScan(c *gin.Context) {
	result, err := s.scanner.Scan(c.Request.Context())
	if err != nil {
		s.logger.Error("direct scan failed", "error", err, "request_id", GetRequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}

	preview := result.Queue
	if len(preview) > scanPreviewLimit {
		preview = preview[:scanPreviewLimit]
	}
	c.JSON(http.StatusOK, gin.H{
		"found_files": result.FoundFiles,
		"queued":      len(result.Queue),
		"queue":       preview,
	})
}

// startRequest is the optional body of POST /api/v1/workflow/start.
type startRequest struct {
	RequestedBy string `json:"requested_by"`
	SourceDir   string `json:"source_dir"`
}

func (s *Server) handleStart(c *gin.Context) {
	var body startRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if body.RequestedBy == "" {
		body.RequestedBy = "admin-api"
	}

	req := domain.NewGenerationRequest(body.RequestedBy)
	req.SourceDir = body.SourceDir
	req.ItemDelay = s.itemDelay

	handle, err := s.runner.Start(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrWorkflowConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "a generation run is already active"})
			return
		}
		s.logger.Error("start run failed", "error", err, "request_id", GetRequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start generation run"})
		return
	}

	c.JSON(http.StatusAccepted, handle)
}

func (s *Server) handleProgress(c *gin.Context) {
	snapshot, err := s.runner.Progress(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveRun) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no generation run"})
			return
		}
		s.logger.Error("progress query failed", "error", err, "request_id", GetRequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query progress"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleCancel(c *gin.Context) {
	if err := s.runner.Cancel(c.Request.Context()); err != nil {
		if errors.Is(err, domain.ErrNoActiveRun) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no generation run"})
			return
		}
		s.logger.Error("cancel failed", "error", err, "request_id", GetRequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel generation run"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "cancellation requested"})
}
