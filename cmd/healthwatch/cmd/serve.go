package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"healthwatch/internal/api"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitoring loops and the HTTP API",
	Long: `Start the metrics and health-check loops and serve the health API:

  GET    /api/v1/health/metrics[?limit=N]
  GET    /api/v1/health/services
  GET    /api/v1/health/summary
  GET    /api/v1/health/dashboard
  GET    /api/v1/health/alerts[?type=&severity=&resolved=]
  POST   /api/v1/health/alerts
  POST   /api/v1/health/alerts/:id/acknowledge
  POST   /api/v1/health/alerts/:id/resolve
  DELETE /api/v1/health/alerts/:id

Example:
  healthwatch serve -c config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	a := newApp(cfg, logger)

	handler := api.NewHandler(a.history, a.checker, a.alerts, a.aggregator, a.scheduler, logger)
	router := api.NewRouter(handler, api.RouterOptions{Requests: a.requests, Sessions: a.sessions}, logger)
	srv := api.NewServer(&cfg.Server, router, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.scheduler.Start(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Dur("metrics_interval", cfg.Scheduler.MetricsInterval).
		Dur("health_check_interval", cfg.Scheduler.HealthCheckInterval).
		Int("services", len(cfg.HealthCheck.Services)).
		Msg("healthwatch started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			a.scheduler.Stop()
			return fmt.Errorf("server stopped: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}
	a.scheduler.Stop()

	logger.Info().Msg("healthwatch exited")
	return nil
}
