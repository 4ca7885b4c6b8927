// Package server exposes the export engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fbz-tec/storexport/core/export"
	"github.com/fbz-tec/storexport/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to an export engine.
type Server struct {
	engine   *export.Engine
	gatherer prometheus.Gatherer
	router   *gin.Engine
}

// New builds the router. Metrics are served from gatherer when non-nil.
func New(engine *export.Engine, gatherer prometheus.Gatherer) *Server {
	s := &Server{engine: engine, gatherer: gatherer, router: gin.New()}
	s.router.Use(gin.Recovery(), requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.POST("/exports", s.createExport)
	r.GET("/exports/:id", s.status)
	r.POST("/exports/:id/batches", s.processBatch)
	r.GET("/exports/:id/downloads", s.downloads)
	r.GET("/downloads", s.download)

	r.POST("/preview", s.preview)
	r.GET("/catalog/:kind", s.describe)
	r.GET("/catalog/:kind/options", s.options)

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
