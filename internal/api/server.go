package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"healthwatch/internal/config"
)

// RouterOptions carries the optional middleware collaborators.
type RouterOptions struct {
	Requests RequestObserver // nil disables request statistics
	Sessions UserToucher     // nil disables session tracking
}

// NewRouter builds the gin engine with every health route registered.
func NewRouter(h *Handler, opts RouterOptions, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger.With().Str("component", "http").Logger()))
	if opts.Requests != nil {
		r.Use(RequestStats(opts.Requests))
	}
	if opts.Sessions != nil {
		r.Use(SessionTracking(opts.Sessions))
	}

	r.GET("/healthz", h.Healthz)

	health := r.Group("/api/v1/health")
	{
		health.GET("/metrics", h.GetMetrics)
		health.GET("/services", h.GetServices)
		health.GET("/summary", h.GetSummary)
		health.GET("/dashboard", h.GetDashboard)

		health.GET("/alerts", h.ListAlerts)
		health.POST("/alerts", h.CreateAlert)
		health.POST("/alerts/:id/acknowledge", h.AcknowledgeAlert)
		health.POST("/alerts/:id/resolve", h.ResolveAlert)
		health.DELETE("/alerts/:id", h.DismissAlert)
	}

	return r
}

// Server is the HTTP front of the monitor.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer wraps router in an http.Server configured from cfg.
func NewServer(cfg *config.ServerConfig, router http.Handler, logger zerolog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: cfg.ReadTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			MaxHeaderBytes:    1 << 20,
		},
		logger: logger.With().Str("component", "server").Logger(),
	}
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}
