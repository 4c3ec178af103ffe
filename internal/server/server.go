// Package server answers detection requests from the browser extension over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/byteowlz/tailr/internal/config"
	"github.com/byteowlz/tailr/internal/logging"
	"github.com/byteowlz/tailr/pkg/jobdetect"
)

const (
	// ActionDetect is the only action the extension sends.
	ActionDetect = "detectJobPosting"

	RequestIDHeader = "X-Request-ID"

	shutdownTimeout = 5 * time.Second
)

// JobDetector runs one detection for a page address.
type JobDetector interface {
	Detect(ctx context.Context, url string) jobdetect.Report
}

type Server struct {
	detector JobDetector
	cfg      config.ServerConfig
	version  string
	log      *logging.Logger
}

func New(detector JobDetector, cfg config.ServerConfig, version string, log *logging.Logger) *Server {
	return &Server{detector: detector, cfg: cfg, version: version, log: log.With("server")}
}

type detectRequest struct {
	Action string `json:"action" binding:"required"`
	URL    string `json:"url"`
}

// Router builds the gin engine with CORS for the configured extension origins.
func (s *Server) Router() (*gin.Engine, error) {
	corsConfig, err := s.corsConfig()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestID())
	r.Use(cors.New(corsConfig))

	r.GET("/", s.index)
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.POST("/detect", s.detect)
	}
	return r, nil
}

func (s *Server) corsConfig() (cors.Config, error) {
	c := cors.DefaultConfig()
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", RequestIDHeader}
	c.ExposeHeaders = []string{RequestIDHeader}
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	c.AllowBrowserExtensions = true
	c.AllowWildcard = true

	for _, origin := range s.cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c, nil
		}
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
		return c, nil
	}

	c.AllowOrigins = s.cfg.AllowedOrigins
	if err := c.Validate(); err != nil {
		return cors.Config{}, fmt.Errorf("invalid allowed_origins: %w", err)
	}
	return c, nil
}

// requestID tags every request with an id, reusing the caller's when it is a
// valid UUID, and logs the request once it is done.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		s.log.Printf("%s %s %s %d %s", id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func (s *Server) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    config.AppName,
		"status":  "running",
		"version": s.version,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// detect handles POST /api/detect. Failures to reach the page still answer
// 200 with found=false, as the extension treats that as "no job here".
func (s *Server) detect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request: "+err.Error()))
		return
	}
	if req.Action != ActionDetect {
		c.JSON(http.StatusBadRequest, errorBody(fmt.Sprintf("unknown action %q", req.Action)))
		return
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, errorBody("url is required"))
		return
	}

	rep := s.detector.Detect(c.Request.Context(), req.URL)
	if rep.Err != nil {
		s.log.Printf("%s: %v", c.GetString("request_id"), rep.Err)
	}
	c.JSON(http.StatusOK, rep.Message())
}

func errorBody(msg string) gin.H {
	return gin.H{"found": false, "data": nil, "error": msg}
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	router, err := s.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Printf("listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Printf("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
