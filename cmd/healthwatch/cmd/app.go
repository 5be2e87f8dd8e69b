package cmd

import (
	"time"

	"github.com/rs/zerolog"

	"healthwatch/internal/client/host"
	"healthwatch/internal/client/issues"
	"healthwatch/internal/client/probe"
	"healthwatch/internal/config"
	"healthwatch/internal/service"
)

// requestWindow is the rolling window behind response_time_ms and error_rate.
const requestWindow = time.Minute

// app owns every long-lived component. It is built once per process and
// handed to the scheduler and the API layer.
type app struct {
	cfg        *config.Config
	history    *service.MetricsHistory
	checker    *service.ServiceHealthChecker
	alerts     *service.AlertStore
	monitor    *service.Monitor
	aggregator *service.SummaryAggregator
	requests   *service.RequestRecorder
	sessions   *service.SessionTracker
	scheduler  *service.Scheduler
}

func newApp(cfg *config.Config, logger zerolog.Logger) *app {
	requests := service.NewRequestRecorder(requestWindow)
	sampler := service.NewMetricsSampler(host.NewClient(cfg.Sampler.DiskPath), requests, logger)
	history := service.NewMetricsHistory(cfg.History.Capacity)

	checker := service.NewServiceHealthChecker(
		cfg.HealthCheck.Services,
		probe.NewClient(&cfg.HTTP.Retry, logger),
		service.HealthCheckerOptions{
			Concurrency:    cfg.HealthCheck.Concurrency,
			DefaultTimeout: cfg.HealthCheck.DefaultTimeout,
		},
		logger,
	)

	alerts := service.NewAlertStore(logger, service.WithMaxResolved(cfg.Alerts.MaxResolved))

	monitor := service.NewMonitor(sampler, history, checker, alerts, service.MonitorOptions{
		Thresholds:         cfg.Thresholds,
		RaiseOnServiceDown: cfg.Alerts.RaiseOnServiceDown,
	}, logger)

	sessions := service.NewSessionTracker(cfg.Dashboard.SessionWindow)
	aggOpts := service.AggregatorOptions{
		Sessions:      sessions,
		LatencyWindow: cfg.Dashboard.LatencyWindow,
		StartedAt:     time.Now(),
	}
	if cfg.Dashboard.IssueTracker.Endpoint != "" {
		aggOpts.Issues = issues.NewClient(&cfg.Dashboard.IssueTracker, &cfg.HTTP.Retry, logger)
	}
	aggregator := service.NewSummaryAggregator(history, checker, alerts, aggOpts, logger)

	scheduler := service.NewScheduler(
		service.SchedulerOptions{
			ErrorBackoff: cfg.Scheduler.ErrorBackoff,
			RunOnStart:   cfg.Scheduler.RunOnStart,
		},
		logger,
		monitor.Loops(cfg.Scheduler.MetricsInterval, cfg.Scheduler.HealthCheckInterval)...,
	)

	return &app{
		cfg:        cfg,
		history:    history,
		checker:    checker,
		alerts:     alerts,
		monitor:    monitor,
		aggregator: aggregator,
		requests:   requests,
		sessions:   sessions,
		scheduler:  scheduler,
	}
}
