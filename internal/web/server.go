// Package web serves the catalog viewer as an HTML page and a JSON API.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/config"
	"github.com/rewired-gh/polysoccer/internal/logger"
	"github.com/rewired-gh/polysoccer/internal/pricehistory"
	"github.com/rewired-gh/polysoccer/internal/session"
)

// Deps are the shared components the handlers read from.
type Deps struct {
	Store    *catalog.Store
	Source   catalog.EventSource
	Prices   *pricehistory.Lookup
	Sessions *session.Manager
	PageSize int
	// SessionTTL is the cookie lifetime.
	SessionTTL time.Duration
	// PriceTimeout bounds how long a request waits for the price lookup.
	PriceTimeout time.Duration
}

// Server wraps the HTTP server for the viewer.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the router and the HTTP server.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	// Event ids may contain escaped slashes; route on the raw path.
	r.UseRawPath = true
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(parseTemplates())

	NewViewerController(deps).RegisterRoutes(r.Group("/"))
	NewAPIController(deps).RegisterRoutes(r.Group("/api"))

	return &Server{
		engine: r,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("Starting HTTP server on %s", s.httpServer.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
