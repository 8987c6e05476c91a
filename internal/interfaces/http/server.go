// Package http serves the single-conversation web front-end: a static page,
// a health probe, and the streamed /chat endpoint.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/entity"
	"github.com/gamalhq/gamal/internal/domain/service"
	"github.com/gamalhq/gamal/pkg/safego"
)

// Config HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server wraps the gin router and the process-wide conversation state.
type Server struct {
	server   *http.Server
	logger   *zap.Logger
	pipeline *service.Pipeline

	// One conversation per process; inquiries against it are serialized.
	mu      sync.Mutex
	history *entity.History
}

// NewServer builds the HTTP front-end around the pipeline.
func NewServer(cfg Config, pipeline *service.Pipeline, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		logger:   logger,
		pipeline: pipeline,
		history:  &entity.History{},
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: router,
	}
	return s
}

// Start begins serving in the background. Failures to bind surface in the
// log; Stop shuts the listener down.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	safego.Go(s.logger, "http-serve", func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	})

	return nil
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	router.GET("/", s.handleIndex)
	router.GET("/index.html", s.handleIndex)
	router.GET("/chat", s.handleChat)

	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found")
	})
}

// ginLogger is the request log middleware.
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
